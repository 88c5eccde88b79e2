// Package signal builds model prompts and parses the line-prefixed
// responses back into structured form.
package signal

import (
	"strconv"
	"strings"

	"gpt-signal-relay/internal/types"
)

var schemaFields = []string{"Decision", "Entry", "SL", "TP1", "TP2", "RR", "Why", "Risk"}

// Parse extracts a structured signal from free model text. The text
// generator is not contractually bound to the schema, so parsing is
// best effort: unmatched lines are ignored, unparseable values keep
// their defaults, and Missing lists every schema field that was not
// recovered. Parse never fails.
func Parse(text string) types.ParsedSignal {
	out := types.ParsedSignal{Decision: types.DecisionWait, RR: 1.5}
	seen := map[string]bool{}

	for _, raw := range strings.Split(text, "\n") {
		ln := strings.TrimSpace(raw)
		if ln == "" {
			continue
		}
		prefix, rest, ok := strings.Cut(ln, ":")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(strings.TrimSpace(prefix)) {
		case "decision":
			v := strings.ToUpper(rest)
			if v == types.DecisionLong || v == types.DecisionShort || v == types.DecisionWait {
				out.Decision = v
				seen["Decision"] = true
			}
		case "entry":
			if lo, hi, ok := parseRange(rest); ok {
				out.EntryLow, out.EntryHigh = lo, hi
				seen["Entry"] = true
			}
		case "sl":
			if v, err := parseNumber(rest); err == nil {
				out.StopLoss = v
				seen["SL"] = true
			}
		case "tp1":
			if v, err := parseNumber(rest); err == nil {
				out.TP1 = v
				seen["TP1"] = true
			}
		case "tp2":
			if v, err := parseNumber(rest); err == nil {
				out.TP2 = v
				seen["TP2"] = true
			}
		case "rr":
			if v, err := parseNumber(rest); err == nil {
				out.RR = v
				seen["RR"] = true
			}
		case "why":
			if rest != "" {
				out.Why = rest
				seen["Why"] = true
			}
		case "risk":
			if rest != "" {
				out.Risk = rest
				seen["Risk"] = true
			}
		}
	}

	for _, f := range schemaFields {
		if !seen[f] {
			out.Missing = append(out.Missing, f)
		}
	}
	return out
}

// parseRange accepts "61000" or "61000-61500". A single value yields a
// degenerate range with low == high.
func parseRange(s string) (lo, hi float64, ok bool) {
	if v, err := parseNumber(s); err == nil {
		return v, v, true
	}
	a, b, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}
	lo, err1 := parseNumber(a)
	hi, err2 := parseNumber(b)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// parseNumber tolerates thousands separators and a trailing currency
// marker, both of which models like to emit.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "$")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
