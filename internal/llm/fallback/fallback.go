// Package fallback provides the canned WAIT response used whenever no
// model is configured or a model call fails. The text follows the
// signal schema so the downstream parser and journal treat it like any
// other response.
package fallback

import (
	"context"
	"fmt"

	"gpt-signal-relay/internal/logger"
)

// WaitText renders a schema-conforming WAIT with the failure reason
// embedded in the rationale.
func WaitText(reason string) string {
	return fmt.Sprintf(
		"Decision: WAIT\nEntry: 0\nSL: 0\nTP1: 0\nTP2: 0\nRR: 1.5\nWhy: 1) %s 2) fallback\nRisk: unavailable",
		reason)
}

// Decider always answers WAIT. Used when no llm provider is configured.
type Decider struct{}

func NewDecider() *Decider {
	return &Decider{}
}

func (d *Decider) Generate(ctx context.Context, _ string) (string, error) {
	logger.Debug(ctx, "fallback decider called, answering WAIT")
	return WaitText("no_llm_configured"), nil
}

func (d *Decider) GenerateVision(ctx context.Context, _, _ string) (string, error) {
	logger.Debug(ctx, "fallback decider called for vision, answering WAIT")
	return WaitText("no_llm_configured"), nil
}
