package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"
)

var catalogHeader = []string{"filename", "owner", "instance", "description", "hash", "saved_at"}

// readCatalog loads every row. A missing catalog is an empty one.
func (a *Archive) readCatalog(ctx context.Context) ([]Entry, error) {
	data, err := a.blobs.Get(ctx, CatalogName)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return parseCatalog(data)
}

// writeCatalog replaces the catalog with entries.
func (a *Archive) writeCatalog(ctx context.Context, entries []Entry) error {
	data, err := formatCatalog(entries)
	if err != nil {
		return err
	}
	if err := a.blobs.Put(ctx, CatalogName, data); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

func parseCatalog(data []byte) ([]Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(catalogHeader)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		savedAt, err := time.Parse(time.RFC3339, row[5])
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: bad saved_at %q: %w", i+1, row[5], err)
		}
		entries = append(entries, Entry{
			Filename:    row[0],
			Owner:       row[1],
			Instance:    row[2],
			Description: row[3],
			Hash:        row[4],
			SavedAt:     savedAt,
		})
	}
	return entries, nil
}

func formatCatalog(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(catalogHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{e.Filename, e.Owner, e.Instance, e.Description, e.Hash, e.SavedAt.Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to encode catalog row %s: %w", e.Filename, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}
