// Package archive keeps named graph snapshots in a blob store next to a CSV
// catalog. A snapshot is refused when its content hash is already listed.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/logger"
	"github.com/agenthands/infoase/internal/metrics"
)

const (
	CatalogName = "info.csv"

	blobExt         = ".json"
	filenameLayout  = "20060102150405"
	unsafeComponent = "-"
)

var (
	ErrNotFound        = errors.New("archive: object not found")
	ErrInvalidFilename = errors.New("archive: invalid file name")
)

var componentPattern = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// BlobStore holds flat, named objects. Delete of a missing object is not an
// error.
type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// Entry is one catalog row.
type Entry struct {
	Filename    string    `json:"filename"`
	Owner       string    `json:"owner"`
	Instance    string    `json:"instance"`
	Description string    `json:"description"`
	Hash        string    `json:"hash"`
	SavedAt     time.Time `json:"saved_at"`
}

type SaveRequest struct {
	Graph       model.Graph `json:"graph"`
	Owner       string      `json:"owner"`
	Instance    string      `json:"instance"`
	Description string      `json:"description"`
}

// SaveResult reports what Save did. Duplicate is set, and Saved is not,
// when the graph's hash is already catalogued; Entry is then the existing
// row.
type SaveResult struct {
	Saved     bool  `json:"saved"`
	Duplicate bool  `json:"duplicate"`
	Entry     Entry `json:"entry"`
}

type Archive struct {
	blobs BlobStore
	log   *logger.Logger
	now   func() time.Time

	// mu serializes catalog read-modify-write cycles in this process.
	mu sync.Mutex
}

func New(blobs BlobStore, log *logger.Logger) *Archive {
	return &Archive{blobs: blobs, log: logger.OrNop(log), now: time.Now}
}

// ValidateFilename rejects empty names, path separators and dot segments.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

// Hash returns the hex SHA-256 of the graph's JSON encoding. Map keys are
// sorted by encoding/json, so equal graphs hash equally.
func Hash(g model.Graph) (string, error) {
	_, hash, err := encodeGraph(g)
	return hash, err
}

func encodeGraph(g model.Graph) ([]byte, string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode graph: %w", err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

func (a *Archive) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	res, err := a.save(ctx, req)
	switch {
	case err != nil:
		metrics.ArchiveSaves.WithLabelValues(metrics.OutcomeFailure).Inc()
	case res.Duplicate:
		metrics.ArchiveSaves.WithLabelValues(metrics.OutcomeDuplicate).Inc()
	default:
		metrics.ArchiveSaves.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
	return res, err
}

func (a *Archive) save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	data, hash, err := encodeGraph(req.Graph)
	if err != nil {
		return SaveResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.readCatalog(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	for _, e := range entries {
		if e.Hash == hash {
			a.log.Info("graph already archived", "filename", e.Filename, "hash", hash)
			return SaveResult{Duplicate: true, Entry: e}, nil
		}
	}

	now := a.now()
	entry := Entry{
		Filename:    blobName(now, req.Instance, req.Owner, entries),
		Owner:       req.Owner,
		Instance:    req.Instance,
		Description: req.Description,
		Hash:        hash,
		SavedAt:     now.UTC().Truncate(time.Second),
	}

	if err := a.blobs.Put(ctx, entry.Filename, data); err != nil {
		return SaveResult{}, fmt.Errorf("failed to write %s: %w", entry.Filename, err)
	}
	if err := a.writeCatalog(ctx, append(entries, entry)); err != nil {
		// Every blob has a catalog row.
		if derr := a.blobs.Delete(ctx, entry.Filename); derr != nil {
			a.log.Warn("failed to remove uncatalogued graph", "filename", entry.Filename, "error", derr)
		}
		return SaveResult{}, err
	}

	a.log.Info("graph archived", "filename", entry.Filename, "nodes", len(req.Graph.Nodes),
		"relationships", len(req.Graph.Relationships))
	return SaveResult{Saved: true, Entry: entry}, nil
}

// List returns the catalog in save order.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readCatalog(ctx)
}

// Entry returns the catalog row of filename.
func (a *Archive) Entry(ctx context.Context, filename string) (Entry, error) {
	if err := ValidateFilename(filename); err != nil {
		return Entry{}, err
	}
	entries, err := a.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Filename == filename {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, filename)
}

// Delete removes the blob and its catalog row. Deleting a file that is not
// there is a no-op.
func (a *Archive) Delete(ctx context.Context, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.blobs.Delete(ctx, filename); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}

	entries, err := a.readCatalog(ctx)
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Filename != filename {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	if err := a.writeCatalog(ctx, kept); err != nil {
		return err
	}
	a.log.Info("archived graph deleted", "filename", filename)
	return nil
}

// Restore loads the graph saved under filename.
func (a *Archive) Restore(ctx context.Context, filename string) (model.Graph, error) {
	if err := ValidateFilename(filename); err != nil {
		return model.Graph{}, err
	}
	data, err := a.blobs.Get(ctx, filename)
	if err != nil {
		return model.Graph{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	g, err := decodeGraph(data)
	if err != nil {
		return model.Graph{}, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return g, nil
}

// Close releases the blob store when it holds a client.
func (a *Archive) Close() error {
	if c, ok := a.blobs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func decodeGraph(data []byte) (model.Graph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var g model.Graph
	if err := dec.Decode(&g); err != nil {
		return model.Graph{}, err
	}
	g.NormalizeNumbers()
	return g, nil
}

// blobName builds <timestamp>_<instance>_<owner>.json. A name already in the
// catalog gets a numeric suffix.
func blobName(at time.Time, instance, owner string, entries []Entry) string {
	base := at.Format(filenameLayout) + "_" + component(instance) + "_" + component(owner)
	name := base + blobExt
	for n := 2; taken(entries, name); n++ {
		name = fmt.Sprintf("%s-%d%s", base, n, blobExt)
	}
	return name
}

func component(s string) string {
	s = strings.Trim(componentPattern.ReplaceAllString(s, unsafeComponent), unsafeComponent)
	if s == "" {
		return "unknown"
	}
	return s
}

func taken(entries []Entry, name string) bool {
	for _, e := range entries {
		if e.Filename == name {
			return true
		}
	}
	return false
}
