// Package command parses journal commands from chat text and applies
// them to the trade ledger.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gpt-signal-relay/internal/interfaces"
	"gpt-signal-relay/internal/journal"
	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/types"
)

// Cmd is one parsed journal command.
type Cmd struct {
	Verb    string
	TradeID string
	Price   *float64
}

var verbs = map[string]bool{
	"fill": true, "tp1": true, "tp2": true, "sl": true,
	"exit": true, "cancel": true, "status": true,
}

// Parse recognizes "/fill <id> <price>" style commands. Returns ok=false
// for anything that is not a journal command, so plain chat text falls
// through to the signal flow.
func Parse(text string) (Cmd, bool, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return Cmd{}, false, nil
	}

	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	// strip the @botname suffix Telegram appends in groups
	verb, _, _ = strings.Cut(verb, "@")
	if !verbs[verb] {
		return Cmd{}, false, nil
	}
	if len(fields) < 2 {
		return Cmd{}, true, fmt.Errorf("usage: /%s <trade_id>", verb)
	}

	cmd := Cmd{Verb: verb, TradeID: fields[1]}
	if len(fields) > 2 {
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Cmd{}, true, fmt.Errorf("bad price %q", fields[2])
		}
		cmd.Price = &v
	}

	switch verb {
	case "fill", "exit":
		if cmd.Price == nil {
			return Cmd{}, true, fmt.Errorf("usage: /%s <trade_id> <price>", verb)
		}
	}
	return cmd, true, nil
}

type lossRecorder interface {
	RecordLoss(now time.Time)
}

// Handler applies parsed commands against the journal and charges the
// daily risk budget on realized losses.
type Handler struct {
	journal interfaces.Journal
	guard   lossRecorder
}

func NewHandler(j interfaces.Journal, g lossRecorder) *Handler {
	return &Handler{journal: j, guard: g}
}

// Handle executes one command and returns the HTML reply for the chat.
// Unknown trade ids come back as a user-facing message, not an error.
func (h *Handler) Handle(ctx context.Context, cmd Cmd) (string, error) {
	logger.Command(ctx, cmd.Verb, cmd.TradeID)

	var (
		e   *types.JournalEntry
		err error
	)
	switch cmd.Verb {
	case "status":
		e, err = h.journal.Get(ctx, cmd.TradeID)
	case "fill":
		e, err = h.journal.Fill(ctx, cmd.TradeID, *cmd.Price)
	case "tp1":
		e, err = h.journal.MarkTP1(ctx, cmd.TradeID, cmd.Price)
	case "tp2":
		e, err = h.journal.MarkTP2(ctx, cmd.TradeID, cmd.Price)
	case "sl":
		e, err = h.journal.MarkStopped(ctx, cmd.TradeID)
		if err == nil {
			h.guard.RecordLoss(time.Now())
		}
	case "exit":
		e, err = h.journal.Exit(ctx, cmd.TradeID, *cmd.Price)
		if err == nil && e.PnLAbs != nil && *e.PnLAbs < 0 {
			h.guard.RecordLoss(time.Now())
		}
	case "cancel":
		e, err = h.journal.Cancel(ctx, cmd.TradeID)
	default:
		return "", fmt.Errorf("unknown verb %q", cmd.Verb)
	}

	if errors.Is(err, journal.ErrNotFound) {
		return fmt.Sprintf("trade not found: <code>%s</code>", cmd.TradeID), nil
	}
	if err != nil {
		return "", err
	}
	return summarize(e), nil
}

func summarize(e *types.JournalEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> %s %s\n", e.TradeID, e.Symbol, e.Timeframe)
	fmt.Fprintf(&b, "Status: <b>%s</b> | Decision: %s | RR~%v\n", e.Status, e.Decision, e.RR)
	fmt.Fprintf(&b, "Entry: <code>%v-%v</code> | SL: <code>%v</code> | TP1: <code>%v</code> | TP2: <code>%v</code>",
		e.EntryLow, e.EntryHigh, e.StopLoss, e.TP1, e.TP2)
	if e.FillPrice != nil {
		fmt.Fprintf(&b, "\nFill: <code>%v</code>", *e.FillPrice)
	}
	if e.ExitPrice != nil {
		fmt.Fprintf(&b, " | Exit: <code>%v</code>", *e.ExitPrice)
	}
	if e.PnLAbs != nil && e.PnLPct != nil {
		fmt.Fprintf(&b, "\nPnL: <b>%+.2f</b> (%+.2f%%)", *e.PnLAbs, *e.PnLPct)
	}
	return b.String()
}
