package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/core/parser"
	"github.com/agenthands/infoase/internal/llm"
	"github.com/agenthands/infoase/internal/logger"
	"github.com/agenthands/infoase/internal/metrics"
)

const DefaultMaxTokens = 4096

type Extractor struct {
	LLM    llm.LLMClient
	Prompt Prompt
	Parser parser.Parser

	// Counter measures the prompt and the chunks. MaxTokens is the model's
	// context window; SafetyMargin is held back on top of the prompt.
	Counter      chunker.TokenCounter
	MaxTokens    int
	SafetyMargin int
	Separators   []string

	// RepairAttempts is how often a malformed completion is sent back to the
	// model. Zero disables repair.
	RepairAttempts int

	Logger *logger.Logger
	NewID  func() string
}

type Option func(*Extractor)

func WithPrompt(p Prompt) Option { return func(e *Extractor) { e.Prompt = p } }

func WithParser(p parser.Parser) Option { return func(e *Extractor) { e.Parser = p } }

func WithCounter(c chunker.TokenCounter) Option { return func(e *Extractor) { e.Counter = c } }

func WithTokenBudget(maxTokens, safetyMargin int) Option {
	return func(e *Extractor) {
		e.MaxTokens = maxTokens
		e.SafetyMargin = safetyMargin
	}
}

func WithRepairAttempts(n int) Option { return func(e *Extractor) { e.RepairAttempts = n } }

func WithLogger(l *logger.Logger) Option { return func(e *Extractor) { e.Logger = l } }

func WithIDGenerator(f func() string) Option { return func(e *Extractor) { e.NewID = f } }

// NewExtractor returns an extractor with the default prompt, a 4096 token
// window and no repair. Without WithCounter, length is measured in runes.
func NewExtractor(llmClient llm.LLMClient, opts ...Option) *Extractor {
	e := &Extractor{
		LLM:          llmClient,
		Prompt:       DefaultPrompt(),
		MaxTokens:    DefaultMaxTokens,
		SafetyMargin: chunker.DefaultSafetyMargin,
		Separators:   chunker.DefaultSeparators,
		NewID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Counter == nil {
		e.Counter = chunker.RuneCounter
	}
	e.Logger = logger.OrNop(e.Logger)
	return e
}

// RunResult is the outcome of one run. Diagnostics are tagged with the
// index of the chunk they came from.
type RunResult struct {
	RunID       string            `json:"run_id"`
	Fragments   []model.Fragment  `json:"fragments"`
	Diagnostics model.Diagnostics `json:"diagnostics,omitempty"`
	Labels      []string          `json:"labels"`
}

// Graph merges the run's fragments.
func (r RunResult) Graph() model.Graph {
	return model.MergeFragments(r.Fragments...)
}

// Run extracts a graph from one text.
func (e *Extractor) Run(ctx context.Context, text string) (RunResult, error) {
	return e.RunDocuments(ctx, []chunker.Document{{Text: text}})
}

// RunDocuments chunks docs and extracts one fragment per chunk, strictly in
// order. Node types found in earlier chunks are offered to the model for
// later ones. Any failing chunk aborts the run and nothing is returned.
func (e *Extractor) RunDocuments(ctx context.Context, docs []chunker.Document) (RunResult, error) {
	start := time.Now()
	res, err := e.run(ctx, docs)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExtractionRuns.WithLabelValues(metrics.OutcomeFailure).Inc()
		return RunResult{}, err
	}
	metrics.ExtractionRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return res, nil
}

func (e *Extractor) run(ctx context.Context, docs []chunker.Document) (RunResult, error) {
	runID := e.NewID()
	log := e.Logger.With("run_id", runID)

	overhead := e.Counter.Count(e.Prompt.Render(""))
	size, err := chunker.Budget(e.MaxTokens, overhead, e.SafetyMargin)
	if err != nil {
		return RunResult{}, err
	}

	ch := chunker.New(e.Counter, size)
	ch.Separators = e.Separators
	ch.NewID = e.NewID
	chunks, err := ch.Split(docs)
	if err != nil {
		return RunResult{}, err
	}
	log.Info("extraction started", "documents", len(docs), "chunks", len(chunks), "chunk_size", size)

	labels := NewLabelSet()
	result := RunResult{RunID: runID, Fragments: make([]model.Fragment, 0, len(chunks))}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		log.Debug("processing chunk", "chunk", i+1, "of", len(chunks))

		parsed, err := e.extractChunk(ctx, chunk.Content, labels.List())
		if err != nil {
			log.Error("chunk failed", "chunk", i+1, "error", err)
			return RunResult{}, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		metrics.ChunksProcessed.Inc()

		for _, d := range parsed.Diagnostics {
			metrics.ParserDiagnostics.WithLabelValues(d.Code).Inc()
			log.Warn("parser diagnostic", "chunk", i+1, "code", d.Code, "message", d.Message)
		}
		result.Diagnostics = append(result.Diagnostics, parsed.Diagnostics.WithChunk(i)...)

		result.Fragments = append(result.Fragments, model.Fragment{
			Nodes:         parsed.Nodes,
			Relationships: parsed.Relationships,
			Source:        chunk,
		})
		for _, n := range parsed.Nodes {
			labels.Add(n.Type)
		}
		log.Debug("chunk done", "chunk", i+1, "nodes", len(parsed.Nodes), "relationships", len(parsed.Relationships))
	}

	result.Labels = labels.List()
	log.Info("extraction finished", "fragments", len(result.Fragments), "labels", len(result.Labels), "diagnostics", len(result.Diagnostics))
	return result, nil
}

func (e *Extractor) extractChunk(ctx context.Context, text string, labels []string) (parser.Result, error) {
	completion, err := e.LLM.Generate(ctx, e.Prompt.Render(InputWithLabels(text, labels)))
	if err != nil {
		return parser.Result{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	repairer := &Repairer{LLM: e.LLM, Parser: e.Parser, Attempts: e.RepairAttempts, Logger: e.Logger}
	res, err := repairer.Parse(ctx, completion)
	if err != nil {
		return parser.Result{}, fmt.Errorf("failed to parse graph: %w", err)
	}
	return res, nil
}
