package core

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/agenthands/infoase/internal/archive"
	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/extraction"
	"github.com/agenthands/infoase/internal/core/store"
	"github.com/agenthands/infoase/internal/driver/drivertest"
)

const aliceBobResponse = `Nodes: [['Alice', 'person', {'age': 25}], ['Bob', 'person', {}]]
Relationships: [['Alice', 'KNOWS', 'Bob', {'since': 2001}], ['Alice', 'KNOWS', 'Carol', {}]]`

type testService struct {
	*Service
	LLM     *extraction.MockLLMClient
	Drivers map[string]*drivertest.Driver
	Dir     string
}

// newTestService wires two in-memory instances, a local archive and a
// scripted model that answers with responses.
func newTestService(t *testing.T, responses ...string) *testService {
	t.Helper()

	mock := &extraction.MockLLMClient{Responses: responses}
	ex := extraction.NewExtractor(mock,
		extraction.WithPrompt(extraction.Prompt{System: "Extract."}),
		extraction.WithCounter(chunker.CounterFunc(func(s string) int { return len(strings.Fields(s)) })),
		extraction.WithTokenBudget(200, 0),
	)

	drivers := map[string]*drivertest.Driver{
		"development": drivertest.New(),
		"production":  drivertest.New(),
	}
	stores := make(map[string]*store.Store, len(drivers))
	for name, d := range drivers {
		stores[name] = store.New(d, nil)
	}

	dir := filepath.Join(t.TempDir(), "graphs")
	arch := archive.New(archive.NewLocalStore(dir), nil)

	return &testService{
		Service: NewService(ex, stores, "development", arch, nil),
		LLM:     mock,
		Drivers: drivers,
		Dir:     dir,
	}
}
