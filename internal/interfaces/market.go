package interfaces

import (
	"context"

	"gpt-signal-relay/internal/types"
)

// MarketData produces a best-effort enrichment snapshot for a symbol.
// Individual fields are nil when their lookup fails; Snapshot itself
// never returns an error.
type MarketData interface {
	Snapshot(ctx context.Context, symbol string) types.Enrichment
}

// NewsProvider aggregates scored news headlines for a symbol.
type NewsProvider interface {
	Signal(ctx context.Context, symbol string) types.NewsSignal
}
