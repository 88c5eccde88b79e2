package llmobs

import (
	"context"

	"gpt-signal-relay/internal/interfaces"
	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/trace"
)

// observableDecider wraps a Decider with observability (logging & tracing)
type observableDecider struct {
	decider interfaces.Decider
}

// Compile-time interface check
var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{decider: decider}
}

func (od *observableDecider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Generate")
	defer span.End()

	// Skip(1) attributes the record to the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting model decision", "prompt_len", len(prompt))

	out, err := od.decider.Generate(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Model call failed", err)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Model decision received", "response_len", len(out))
	return out, nil
}

func (od *observableDecider) GenerateVision(ctx context.Context, imageURL, caption string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.GenerateVision")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting vision decision", "caption_len", len(caption))

	out, err := od.decider.GenerateVision(ctx, imageURL, caption)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Vision call failed", err)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Vision decision received", "response_len", len(out))
	return out, nil
}
