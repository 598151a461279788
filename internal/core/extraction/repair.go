package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/infoase/internal/core/parser"
	"github.com/agenthands/infoase/internal/llm"
	"github.com/agenthands/infoase/internal/logger"
	"github.com/agenthands/infoase/internal/metrics"
)

const repairTemplate = `Instructions:
--------------
%s
--------------
Completion:
--------------
%s
--------------

Above, the Completion did not satisfy the constraints given in the Instructions.
Error:
--------------
%s
--------------

Please try again. Please only respond with an answer that satisfies the constraints laid out in the Instructions:`

// RepairPrompt asks the model to rewrite a completion the parser rejected.
func RepairPrompt(completion string, parseErr error) string {
	return fmt.Sprintf(repairTemplate, parser.FormatInstructions(), completion, parseErr)
}

// Repairer parses a completion and, when the response is malformed,
// re-prompts the model with the parser error up to Attempts times. Only
// ErrMalformedResponse triggers a retry.
type Repairer struct {
	LLM      llm.LLMClient
	Parser   parser.Parser
	Attempts int
	Logger   *logger.Logger
}

func (r *Repairer) Parse(ctx context.Context, completion string) (parser.Result, error) {
	res, err := r.Parser.Parse(completion)
	for attempt := 1; err != nil && errors.Is(err, parser.ErrMalformedResponse) && attempt <= r.Attempts; attempt++ {
		logger.OrNop(r.Logger).Warn("malformed model response, asking for a fix",
			"attempt", attempt, "max_attempts", r.Attempts, "error", err)

		fixed, genErr := r.LLM.Generate(ctx, RepairPrompt(completion, err))
		if genErr != nil {
			metrics.RepairAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
			return parser.Result{}, fmt.Errorf("repair attempt %d: %w", attempt, genErr)
		}
		completion = fixed
		res, err = r.Parser.Parse(completion)
		if err != nil {
			metrics.RepairAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
		} else {
			metrics.RepairAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
		}
	}
	return res, err
}
