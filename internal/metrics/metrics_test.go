package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(StoreUpserts.WithLabelValues("node", OutcomeCreated))
	StoreUpserts.WithLabelValues("node", OutcomeCreated).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StoreUpserts.WithLabelValues("node", OutcomeCreated)))

	before = testutil.ToFloat64(ParserDiagnostics.WithLabelValues("unknown_target"))
	ParserDiagnostics.WithLabelValues("unknown_target").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(ParserDiagnostics.WithLabelValues("unknown_target")))
}
