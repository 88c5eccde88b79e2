// Package pipeline wires guards, enrichment, the model, the ledger and
// the notifier into the single decision flow every alert runs through.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gpt-signal-relay/internal/guard"
	"gpt-signal-relay/internal/interfaces"
	"gpt-signal-relay/internal/llm/fallback"
	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/quality"
	"gpt-signal-relay/internal/signal"
	"gpt-signal-relay/internal/trace"
	"gpt-signal-relay/internal/tradelog"
	"gpt-signal-relay/internal/types"
)

// Config carries the pipeline-level knobs.
type Config struct {
	QualityMinScore  int
	Forward          bool
	ChannelID        string
	JournalChannelID string
}

type Pipeline struct {
	cfg      Config
	guard    *guard.Guard
	market   interfaces.MarketData
	news     interfaces.NewsProvider
	decider  interfaces.Decider
	journal  interfaces.Journal
	notifier interfaces.Notifier
	now      func() time.Time
}

var _ interfaces.SignalPipeline = (*Pipeline)(nil)

func New(cfg Config, g *guard.Guard, market interfaces.MarketData, news interfaces.NewsProvider,
	decider interfaces.Decider, journal interfaces.Journal, notifier interfaces.Notifier) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		guard:    g,
		market:   market,
		news:     news,
		decider:  decider,
		journal:  journal,
		notifier: notifier,
		now:      time.Now,
	}
}

// Process runs the full gated flow for one alert. Gate rejections are
// expected outcomes and come back as WAIT results, not errors; the only
// error path is a failed outbound notification after the row is already
// journaled.
func (p *Pipeline) Process(ctx context.Context, alert types.Alert) (*types.Result, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Process")
	defer span.End()

	normalize(&alert)
	now := p.now()

	payload := guard.PayloadKey(alert.Symbol, alert.Timeframe, alert.Setup, alert.Price, alert.Context)
	if rej := p.guard.Evaluate(alert.Symbol, payload, now); rej != nil {
		return p.rejected(ctx, alert, rej), nil
	}

	enrich := p.market.Snapshot(ctx, alert.Symbol)
	news := p.news.Signal(ctx, alert.Symbol)

	if news.Block {
		return p.rejected(ctx, alert, types.Reject("negative_news_block")), nil
	}
	if q := quality.Score(alert.Setup, enrich.Funding, enrich.LongShortRatio, enrich.Liquidations); q < p.cfg.QualityMinScore {
		return p.rejected(ctx, alert, types.Reject(fmt.Sprintf("quality<%d", p.cfg.QualityMinScore))), nil
	}

	prompt := signal.BuildPrompt(alert, enrich, news)
	raw, err := p.decider.Generate(ctx, prompt)
	if err != nil {
		// model failures degrade to a canned WAIT, the flow continues
		raw = fallback.WaitText("model_error")
	}
	parsed := signal.Parse(raw)

	row := p.buildRow(alert, parsed, enrich, news, now)
	return p.finish(ctx, row, raw, formatSignalHTML(row, ""))
}

// ProcessVision handles a chart screenshot. Guards and the news gate do
// not apply: the human already chose to ask, enrichment is attached for
// context only.
func (p *Pipeline) ProcessVision(ctx context.Context, alert types.Alert, imageURL, caption string) (*types.Result, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.ProcessVision")
	defer span.End()

	normalize(&alert)
	alert.Source = "vision"
	now := p.now()

	enrich := p.market.Snapshot(ctx, alert.Symbol)

	raw, err := p.decider.GenerateVision(ctx, imageURL, caption)
	if err != nil {
		raw = fallback.WaitText("vision_error")
	}
	parsed := signal.Parse(raw)

	row := p.buildRow(alert, parsed, enrich, types.NewsSignal{}, now)
	return p.finish(ctx, row, raw, formatSignalHTML(row, "🖼 <b>Vision Signal</b>\n"))
}

func (p *Pipeline) rejected(ctx context.Context, alert types.Alert, rej *types.Result) *types.Result {
	logger.Gate(ctx, alert.Symbol, rej.Reason)
	if err := tradelog.Append(tradelog.Entry{
		Symbol:    alert.Symbol,
		Timeframe: alert.Timeframe,
		Setup:     alert.Setup,
		Source:    alert.Source,
		Status:    types.ResultWait,
		Reason:    rej.Reason,
	}); err != nil {
		logger.Warn(ctx, "tradelog append failed", "error", err)
	}
	return rej
}

func (p *Pipeline) buildRow(alert types.Alert, parsed types.ParsedSignal,
	enrich types.Enrichment, news types.NewsSignal, now time.Time) *types.JournalEntry {

	id := alert.TradeID
	if id == "" {
		id = fmt.Sprintf("%s-%s-%d", alert.Symbol, alert.Timeframe, now.Unix())
		if alert.Source == "vision" {
			id = "vision-" + id
		}
	}

	return &types.JournalEntry{
		TradeID:   id,
		CreatedAt: now.UTC().Format(time.RFC3339),
		Source:    alert.Source,
		Symbol:    alert.Symbol,
		Timeframe: alert.Timeframe,
		Setup:     alert.Setup,
		Price:     alert.Price,
		Decision:  parsed.Decision,
		EntryLow:  parsed.EntryLow,
		EntryHigh: parsed.EntryHigh,
		StopLoss:  parsed.StopLoss,
		TP1:       parsed.TP1,
		TP2:       parsed.TP2,
		RR:        parsed.RR,
		Status:    types.StatusNew,
		Funding:   enrich.Funding,
		LSRatio:   enrich.LongShortRatio,
		LiqCount:  enrich.Liquidations,
		NewsScore: news.Score,
		Why:       parsed.Why,
		RiskNote:  parsed.Risk,
	}
}

// finish journals the row, forwards it, and reports the outcome. The
// journal write happening before the send is deliberate: a failed send
// leaves a journaled-but-unsent row for a human to reconcile.
func (p *Pipeline) finish(ctx context.Context, row *types.JournalEntry, raw, html string) (*types.Result, error) {
	if err := p.journal.Create(ctx, row); err != nil {
		logger.ErrorWithErr(ctx, "journal create failed", err, "trade_id", row.TradeID)
	}

	res := &types.Result{Status: types.ResultOK, Row: row, Raw: raw}

	if p.cfg.Forward && p.cfg.ChannelID != "" {
		msgID, err := p.notifier.Send(ctx, p.cfg.ChannelID, html)
		if err != nil {
			logger.ErrorWithErr(ctx, "signal notify failed", err, "trade_id", row.TradeID)
			return res, fmt.Errorf("notify: %w", err)
		}
		if err := p.journal.SetPostedRef(ctx, row.TradeID, msgID); err != nil {
			logger.Warn(ctx, "posted ref not recorded", "trade_id", row.TradeID, "error", err)
		}
		if p.cfg.JournalChannelID != "" {
			if _, err := p.notifier.Send(ctx, p.cfg.JournalChannelID, "[JOURNAL ARCHIVE]\n"+html); err != nil {
				logger.Warn(ctx, "archive notify failed", "trade_id", row.TradeID, "error", err)
			}
		}
	}

	if err := tradelog.Append(tradelog.Entry{
		TradeID:   row.TradeID,
		Symbol:    row.Symbol,
		Timeframe: row.Timeframe,
		Setup:     row.Setup,
		Source:    row.Source,
		Status:    types.ResultOK,
		Decision:  row.Decision,
		NewsScore: row.NewsScore,
	}); err != nil {
		logger.Warn(ctx, "tradelog append failed", "error", err)
	}

	logger.Signal(ctx, row.TradeID, row.Symbol, row.Decision)
	return res, nil
}

func normalize(alert *types.Alert) {
	alert.Symbol = strings.ToUpper(strings.TrimSpace(alert.Symbol))
	if alert.Symbol == "" {
		alert.Symbol = "BTCUSDT"
	}
	if alert.Timeframe == "" {
		alert.Timeframe = "15m"
	}
	if alert.Setup == "" {
		alert.Setup = "neutral"
	}
	if alert.Source == "" {
		alert.Source = "api"
	}
}

func formatSignalHTML(row *types.JournalEntry, header string) string {
	entry := fmt.Sprintf("%v", row.EntryLow)
	if row.EntryHigh != row.EntryLow {
		entry = fmt.Sprintf("%v-%v", row.EntryLow, row.EntryHigh)
	}

	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "⏱ <b>%s</b>\n", row.CreatedAt)
	fmt.Fprintf(&b, "🎯 <b>%s</b> | TF: <b>%s</b> | Setup: <b>%s</b>\n", row.Symbol, row.Timeframe, row.Setup)
	fmt.Fprintf(&b, "💡 Decision: <b>%s</b> | RR~%v\n", row.Decision, row.RR)
	fmt.Fprintf(&b, "📈 Entry: <code>%s</code> | SL: <code>%v</code>\n", entry, row.StopLoss)
	fmt.Fprintf(&b, "🎯 TP1: <code>%v</code> | TP2: <code>%v</code>\n", row.TP1, row.TP2)
	fmt.Fprintf(&b, "🧠 Why: %s\n", row.Why)
	fmt.Fprintf(&b, "⚠️ Risk: %s\n", row.RiskNote)
	fmt.Fprintf(&b, "📊 Data: funding %s | L/S %s | liq %s | news %d",
		fmtFloatPtr(row.Funding), fmtFloatPtr(row.LSRatio), fmtIntPtr(row.LiqCount), row.NewsScore)
	fmt.Fprintf(&b, "\n🆔 <code>%s</code>", row.TradeID)
	return b.String()
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%v", *v)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}
