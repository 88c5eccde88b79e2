package interfaces

import (
	"context"

	"gpt-signal-relay/internal/types"
)

// SignalPipeline runs one alert through guards, enrichment, the model,
// the journal and the notifier.
type SignalPipeline interface {
	Process(ctx context.Context, alert types.Alert) (*types.Result, error)
	ProcessVision(ctx context.Context, alert types.Alert, imageURL, caption string) (*types.Result, error)
}
