package types

// Decision values a signal can carry.
const (
	DecisionLong  = "LONG"
	DecisionShort = "SHORT"
	DecisionWait  = "WAIT"
)

// Trade lifecycle statuses. tp1/tp2 are non-terminal refinements;
// stopped/exit/cancel are terminal.
const (
	StatusNew     = "new"
	StatusFilled  = "filled"
	StatusTP1     = "tp1"
	StatusTP2     = "tp2"
	StatusStopped = "stopped"
	StatusExit    = "exit"
	StatusCancel  = "cancel"
)

// Result statuses returned by the decision pipeline.
const (
	ResultOK   = "OK"
	ResultWait = "WAIT"
)

// Alert is one inbound trading alert, already authenticated by the transport.
type Alert struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"tf"`
	Setup     string  `json:"setup"` // strong_long | strong_short | neutral | free text
	Price     float64 `json:"price"`
	Context   string  `json:"context"`
	Source    string  `json:"source"`   // tv-alert | tg-text | vision | api
	TradeID   string  `json:"trade_id"` // optional, generated when empty
}

// Enrichment is the best-effort free-data snapshot attached to an alert.
// Nil fields mean the lookup failed or is unconfigured.
type Enrichment struct {
	Funding        *float64 `json:"funding"`
	LongShortRatio *float64 `json:"lsr"`
	Liquidations   *int     `json:"liq_recent"`
}

type NewsPost struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}

// NewsSignal aggregates scored headlines for one symbol.
type NewsSignal struct {
	Score int        `json:"news_score"`
	Brief string     `json:"news_brief"`
	Posts []NewsPost `json:"posts,omitempty"`
	Block bool       `json:"block"`
}

// ParsedSignal is the structured form of the model's free-text output.
// Fields keep their defaults when the corresponding line is absent or
// fails to parse; Missing lists the schema fields that were not found.
type ParsedSignal struct {
	Decision  string
	EntryLow  float64
	EntryHigh float64
	StopLoss  float64
	TP1       float64
	TP2       float64
	RR        float64
	Why       string
	Risk      string
	Missing   []string
}

// JournalEntry is the ledger's unit of record, keyed by TradeID.
type JournalEntry struct {
	TradeID     string   `csv:"trade_id" json:"trade_id"`
	CreatedAt   string   `csv:"created_at" json:"created_at"` // UTC RFC3339
	Source      string   `csv:"source" json:"source"`
	Symbol      string   `csv:"symbol" json:"symbol"`
	Timeframe   string   `csv:"timeframe" json:"timeframe"`
	Setup       string   `csv:"setup" json:"setup"`
	Price       float64  `csv:"price" json:"price"`
	Decision    string   `csv:"decision" json:"decision"`
	EntryLow    float64  `csv:"entry_low" json:"entry_low"`
	EntryHigh   float64  `csv:"entry_high" json:"entry_high"`
	StopLoss    float64  `csv:"stop_loss" json:"stop_loss"`
	TP1         float64  `csv:"tp1" json:"tp1"`
	TP2         float64  `csv:"tp2" json:"tp2"`
	RR          float64  `csv:"rr" json:"rr"`
	Status      string   `csv:"status" json:"status"`
	FillPrice   *float64 `csv:"fill_price" json:"fill_price,omitempty"`
	ExitPrice   *float64 `csv:"exit_price" json:"exit_price,omitempty"`
	PnLAbs      *float64 `csv:"pnl_abs" json:"pnl_abs,omitempty"`
	PnLPct      *float64 `csv:"pnl_pct" json:"pnl_pct,omitempty"`
	Fees        float64  `csv:"fees" json:"fees,omitempty"`
	Funding     *float64 `csv:"funding" json:"funding,omitempty"`
	LSRatio     *float64 `csv:"ls_ratio" json:"ls_ratio,omitempty"`
	LiqCount    *int     `csv:"liq_recent" json:"liq_recent,omitempty"`
	NewsScore   int      `csv:"news_score" json:"news_score"`
	Why         string   `csv:"why" json:"why"`
	RiskNote    string   `csv:"risk" json:"risk"`
	PostedMsgID *int     `csv:"posted_msg_id" json:"posted_msg_id,omitempty"`
	Note        string   `csv:"note" json:"note,omitempty"`
}

// Result is the pipeline's answer for one alert. Gate rejections carry
// Status=WAIT plus a machine-readable reason and nothing else.
type Result struct {
	Status string        `json:"status"`
	Reason string        `json:"reason,omitempty"`
	Row    *JournalEntry `json:"row,omitempty"`
	Raw    string        `json:"llm_raw,omitempty"`
}

// Reject builds a gate-rejection result.
func Reject(reason string) *Result {
	return &Result{Status: ResultWait, Reason: reason}
}
