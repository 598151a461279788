package core

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/infoase/internal/archive"
	"github.com/agenthands/infoase/internal/config"
	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/extraction"
	"github.com/agenthands/infoase/internal/core/parser"
	"github.com/agenthands/infoase/internal/core/store"
	"github.com/agenthands/infoase/internal/driver"
	"github.com/agenthands/infoase/internal/llm"
	"github.com/agenthands/infoase/internal/logger"
)

// Open builds a Service from configuration: the model client, one driver
// per graph instance and the archive backend. Drivers are created without
// dialing; call Status to check an instance.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Service, error) {
	log = logger.OrNop(log)

	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	ex := NewExtractor(client, cfg.Extraction, log)

	stores := make(map[string]*store.Store, len(cfg.Graph.Instances))
	for _, name := range cfg.InstanceNames() {
		inst := cfg.Graph.Instances[name]
		instLog := log.With("instance", name)
		d, err := driver.NewNeo4jDriver(driver.Config{
			URI:                   inst.URI,
			Username:              inst.User,
			Password:              inst.Password,
			Database:              inst.Database,
			MaxConnectionLifetime: time.Duration(inst.MaxConnectionLifetimeSeconds) * time.Second,
		}, instLog)
		if err != nil {
			closeStores(ctx, stores)
			return nil, fmt.Errorf("instance %s: %w", name, err)
		}
		st := store.New(d, instLog)
		if cfg.Graph.BuildIndices {
			if err := st.BuildIndices(ctx); err != nil {
				instLog.Warn("failed to build indices", "error", err)
			}
		}
		stores[name] = st
	}

	arch, err := archive.Open(ctx, cfg.Archive, log)
	if err != nil {
		closeStores(ctx, stores)
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	log.Info("service ready", "llm", cfg.LLM.Provider, "model", cfg.LLM.Model,
		"instances", cfg.InstanceNames(), "default_instance", cfg.Graph.DefaultInstance)
	return NewService(ex, stores, cfg.Graph.DefaultInstance, arch, log), nil
}

// NewExtractor configures an extractor for client. Token counting falls
// back to runes when the tiktoken encoding cannot be loaded.
func NewExtractor(client llm.LLMClient, cfg config.ExtractionConfig, log *logger.Logger) *extraction.Extractor {
	log = logger.OrNop(log)

	var counter chunker.TokenCounter = chunker.RuneCounter
	if tc, err := chunker.NewTiktokenCounter(cfg.Encoding); err != nil {
		log.Warn("token encoding unavailable, counting runes", "encoding", cfg.Encoding, "error", err)
	} else {
		counter = tc
	}

	prompt := extraction.DefaultPrompt()
	if cfg.System != "" {
		prompt = extraction.NewPrompt(cfg.System)
	}

	return extraction.NewExtractor(client,
		extraction.WithPrompt(prompt),
		extraction.WithParser(parser.Parser{RepairProperties: cfg.RepairProperties}),
		extraction.WithCounter(counter),
		extraction.WithTokenBudget(cfg.ContextTokens, cfg.SafetyMargin),
		extraction.WithRepairAttempts(cfg.RepairAttempts),
		extraction.WithLogger(log),
	)
}

func closeStores(ctx context.Context, stores map[string]*store.Store) {
	for _, st := range stores {
		_ = st.Close(ctx)
	}
}
