package signal

import (
	"fmt"
	"strconv"
	"strings"

	"gpt-signal-relay/internal/types"
)

// BuildPrompt renders the decision prompt. Unavailable enrichment
// fields are shown as n/a so the model knows the data is missing
// rather than zero.
func BuildPrompt(alert types.Alert, enrich types.Enrichment, news types.NewsSignal) string {
	brief := news.Brief
	if len(brief) > 300 {
		brief = brief[:300]
	}

	lines := []string{
		"You are a disciplined crypto trader. Decide ONLY one of: LONG, SHORT, WAIT.",
		fmt.Sprintf("Symbol: %s | TF: %s | Setup(TV): %s | Price: %v",
			alert.Symbol, alert.Timeframe, alert.Setup, alert.Price),
		fmt.Sprintf("FreeData -> funding: %s, L/S ratio: %s, liq_recent: %s",
			fmtFloat(enrich.Funding), fmtFloat(enrich.LongShortRatio), fmtInt(enrich.Liquidations)),
		fmt.Sprintf("News -> score: %d | brief: %s", news.Score, brief),
		"",
		"Rules:",
		"- Prefer WAIT if data conflicts or risk is elevated.",
		"- If GO: RR~1.5-2, give Entry, SL, TP1, TP2.",
		"- Provide exactly 2 concise reasons + 1 risk note.",
		"",
		"Output (strict):",
		"Decision: LONG/SHORT/WAIT",
		"Entry: <number>",
		"SL: <number>",
		"TP1: <number>",
		"TP2: <number>",
		"RR: <number 1.3..2.2>",
		"Why: 1) ... 2) ...",
		"Risk: ...",
	}
	return strings.Join(lines, "\n")
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}
