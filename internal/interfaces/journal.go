package interfaces

import (
	"context"

	"gpt-signal-relay/internal/types"
)

// Journal is the persistent trade ledger keyed by trade id.
// Mutating calls recompute realized P&L whenever both fill and exit
// prices are present. Unknown ids yield journal.ErrNotFound.
type Journal interface {
	Create(ctx context.Context, e *types.JournalEntry) error
	Get(ctx context.Context, id string) (*types.JournalEntry, error)
	List(ctx context.Context, n int) ([]types.JournalEntry, error)

	Fill(ctx context.Context, id string, price float64) (*types.JournalEntry, error)
	MarkTP1(ctx context.Context, id string, price *float64) (*types.JournalEntry, error)
	MarkTP2(ctx context.Context, id string, price *float64) (*types.JournalEntry, error)
	MarkStopped(ctx context.Context, id string) (*types.JournalEntry, error)
	Exit(ctx context.Context, id string, price float64) (*types.JournalEntry, error)
	Cancel(ctx context.Context, id string) (*types.JournalEntry, error)

	SetPostedRef(ctx context.Context, id string, messageID int) error
	ExportCSV(ctx context.Context) ([]byte, error)
}
