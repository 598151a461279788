// Package core wires the extraction pipeline, the graph stores and the
// snapshot archive behind one Service.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/agenthands/infoase/internal/archive"
	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/extraction"
	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/core/store"
	"github.com/agenthands/infoase/internal/logger"
)

var (
	ErrUnknownInstance = errors.New("unknown graph instance")
	ErrNoArchive       = errors.New("no archive configured")
)

type Service struct {
	Extractor       *extraction.Extractor
	Stores          map[string]*store.Store
	DefaultInstance string
	Archive         *archive.Archive
	Logger          *logger.Logger
}

func NewService(ex *extraction.Extractor, stores map[string]*store.Store, defaultInstance string, arch *archive.Archive, log *logger.Logger) *Service {
	return &Service{
		Extractor:       ex,
		Stores:          stores,
		DefaultInstance: defaultInstance,
		Archive:         arch,
		Logger:          logger.OrNop(log),
	}
}

// ExtractImportResult is the outcome of extracting and importing in one go.
type ExtractImportResult struct {
	Run    extraction.RunResult `json:"run"`
	Import store.ImportResult   `json:"import"`
}

// InstanceStatus describes one graph instance.
type InstanceStatus struct {
	Instance string      `json:"instance"`
	Stats    store.Stats `json:"stats"`
}

// Instances lists the configured instance names, sorted.
func (s *Service) Instances() []string {
	names := make([]string, 0, len(s.Stores))
	for name := range s.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store resolves an instance name; the empty name is the default instance.
func (s *Service) Store(instance string) (*store.Store, string, error) {
	if instance == "" {
		instance = s.DefaultInstance
	}
	st, ok := s.Stores[instance]
	if !ok {
		return nil, instance, fmt.Errorf("%w: %q", ErrUnknownInstance, instance)
	}
	return st, instance, nil
}

func (s *Service) ExtractText(ctx context.Context, text string) (extraction.RunResult, error) {
	return s.Extractor.Run(ctx, text)
}

func (s *Service) ExtractDocuments(ctx context.Context, docs []chunker.Document) (extraction.RunResult, error) {
	return s.Extractor.RunDocuments(ctx, docs)
}

// Import upserts the fragments into instance in order.
func (s *Service) Import(ctx context.Context, instance string, fragments []model.Fragment) (store.ImportResult, error) {
	st, name, err := s.Store(instance)
	if err != nil {
		return store.ImportResult{}, err
	}
	res, err := st.ImportFragments(ctx, fragments)
	s.logDiagnostics(name, res.Diagnostics)
	return res, err
}

func (s *Service) ImportGraph(ctx context.Context, instance string, g model.Graph) (store.ImportResult, error) {
	st, name, err := s.Store(instance)
	if err != nil {
		return store.ImportResult{}, err
	}
	res, err := st.ImportGraph(ctx, g)
	s.logDiagnostics(name, res.Diagnostics)
	return res, err
}

// ExtractAndImport runs an extraction and imports its fragments. Nothing is
// written when the extraction fails.
func (s *Service) ExtractAndImport(ctx context.Context, instance string, docs []chunker.Document) (ExtractImportResult, error) {
	if _, _, err := s.Store(instance); err != nil {
		return ExtractImportResult{}, err
	}
	run, err := s.ExtractDocuments(ctx, docs)
	if err != nil {
		return ExtractImportResult{}, err
	}
	imp, err := s.Import(ctx, instance, run.Fragments)
	return ExtractImportResult{Run: run, Import: imp}, err
}

func (s *Service) Export(ctx context.Context, instance string) (model.Graph, error) {
	st, _, err := s.Store(instance)
	if err != nil {
		return model.Graph{}, err
	}
	return st.Export(ctx)
}

func (s *Service) Cleanup(ctx context.Context, instance string) error {
	st, name, err := s.Store(instance)
	if err != nil {
		return err
	}
	s.Logger.Warn("emptying graph instance", "instance", name)
	return st.Cleanup(ctx)
}

// Status verifies connectivity and counts the instance's contents.
func (s *Service) Status(ctx context.Context, instance string) (InstanceStatus, error) {
	st, name, err := s.Store(instance)
	if err != nil {
		return InstanceStatus{}, err
	}
	if err := st.Status(ctx); err != nil {
		return InstanceStatus{Instance: name}, err
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return InstanceStatus{Instance: name}, err
	}
	return InstanceStatus{Instance: name, Stats: stats}, nil
}

// SaveSnapshot archives the current contents of instance.
func (s *Service) SaveSnapshot(ctx context.Context, instance, owner, description string) (archive.SaveResult, error) {
	if s.Archive == nil {
		return archive.SaveResult{}, ErrNoArchive
	}
	st, name, err := s.Store(instance)
	if err != nil {
		return archive.SaveResult{}, err
	}
	g, err := st.Export(ctx)
	if err != nil {
		return archive.SaveResult{}, err
	}
	return s.Archive.Save(ctx, archive.SaveRequest{
		Graph:       g,
		Owner:       owner,
		Instance:    name,
		Description: description,
	})
}

// RestoreSnapshot imports an archived graph into instance. Existing data is
// merged with it, not replaced.
func (s *Service) RestoreSnapshot(ctx context.Context, filename, instance string) (store.ImportResult, error) {
	if s.Archive == nil {
		return store.ImportResult{}, ErrNoArchive
	}
	if _, _, err := s.Store(instance); err != nil {
		return store.ImportResult{}, err
	}
	g, err := s.Archive.Restore(ctx, filename)
	if err != nil {
		return store.ImportResult{}, err
	}
	return s.ImportGraph(ctx, instance, g)
}

// ShowSnapshot returns a catalog entry together with its graph.
func (s *Service) ShowSnapshot(ctx context.Context, filename string) (archive.Entry, model.Graph, error) {
	if s.Archive == nil {
		return archive.Entry{}, model.Graph{}, ErrNoArchive
	}
	entry, err := s.Archive.Entry(ctx, filename)
	if err != nil {
		return archive.Entry{}, model.Graph{}, err
	}
	g, err := s.Archive.Restore(ctx, filename)
	if err != nil {
		return archive.Entry{}, model.Graph{}, err
	}
	return entry, g, nil
}

func (s *Service) DeleteSnapshot(ctx context.Context, filename string) error {
	if s.Archive == nil {
		return ErrNoArchive
	}
	return s.Archive.Delete(ctx, filename)
}

func (s *Service) ListSnapshots(ctx context.Context) ([]archive.Entry, error) {
	if s.Archive == nil {
		return nil, ErrNoArchive
	}
	return s.Archive.List(ctx)
}

// Close releases every driver, the archive backend and the model client.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	for _, name := range s.Instances() {
		if err := s.Stores[name].Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	if s.Archive != nil {
		if err := s.Archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
	}
	if s.Extractor != nil {
		if c, ok := s.Extractor.LLM.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close llm: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Service) logDiagnostics(instance string, diags model.Diagnostics) {
	for _, d := range diags {
		s.Logger.Warn("import diagnostic", "instance", instance, "code", d.Code, "subject", d.Subject, "message", d.Message)
	}
}
