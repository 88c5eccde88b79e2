package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpt-signal-relay/internal/types"
)

const wellFormed = `Decision: LONG
Entry: 61250
SL: 60800
TP1: 61900
TP2: 62400
RR: 1.8
Why: 1) funding reset 2) liq sweep reclaimed
Risk: CPI print in 2h`

func TestParseWellFormedResponse(t *testing.T) {
	t.Parallel()
	got := Parse(wellFormed)

	assert.Equal(t, types.DecisionLong, got.Decision)
	assert.Equal(t, 61250.0, got.EntryLow)
	assert.Equal(t, 61250.0, got.EntryHigh)
	assert.Equal(t, 60800.0, got.StopLoss)
	assert.Equal(t, 61900.0, got.TP1)
	assert.Equal(t, 62400.0, got.TP2)
	assert.Equal(t, 1.8, got.RR)
	assert.Equal(t, "1) funding reset 2) liq sweep reclaimed", got.Why)
	assert.Equal(t, "CPI print in 2h", got.Risk)
	assert.Empty(t, got.Missing)
}

func TestParseDefaultsWhenFieldsAbsent(t *testing.T) {
	t.Parallel()
	got := Parse("the chart looks choppy, nothing to do here")

	assert.Equal(t, types.DecisionWait, got.Decision)
	assert.Equal(t, 0.0, got.EntryLow)
	assert.Equal(t, 0.0, got.StopLoss)
	assert.Equal(t, 1.5, got.RR)
	assert.Len(t, got.Missing, 8)
}

func TestParseCaseInsensitivePrefixes(t *testing.T) {
	t.Parallel()
	got := Parse("DECISION: short\nentry: 3400\nSl: 3450")

	assert.Equal(t, types.DecisionShort, got.Decision)
	assert.Equal(t, 3400.0, got.EntryLow)
	assert.Equal(t, 3450.0, got.StopLoss)
}

func TestParseEntryRange(t *testing.T) {
	t.Parallel()
	got := Parse("Decision: LONG\nEntry: 61000-61500")
	assert.Equal(t, 61000.0, got.EntryLow)
	assert.Equal(t, 61500.0, got.EntryHigh)

	// reversed bounds are normalized
	got = Parse("Entry: 61500-61000")
	assert.Equal(t, 61000.0, got.EntryLow)
	assert.Equal(t, 61500.0, got.EntryHigh)
}

func TestParseInvalidNumberKeepsDefault(t *testing.T) {
	t.Parallel()
	got := Parse("Decision: LONG\nRR: about two\nSL: around support")

	assert.Equal(t, types.DecisionLong, got.Decision)
	assert.Equal(t, 1.5, got.RR)
	assert.Equal(t, 0.0, got.StopLoss)
	assert.Contains(t, got.Missing, "RR")
	assert.Contains(t, got.Missing, "SL")
}

func TestParseInvalidDecisionKeepsWait(t *testing.T) {
	t.Parallel()
	got := Parse("Decision: MAYBE\nEntry: 100")
	assert.Equal(t, types.DecisionWait, got.Decision)
	assert.Contains(t, got.Missing, "Decision")
}

func TestParseToleratesSeparatorsAndCurrencyMarks(t *testing.T) {
	t.Parallel()
	got := Parse("Entry: 61,250\nTP1: $62,000")
	assert.Equal(t, 61250.0, got.EntryLow)
	assert.Equal(t, 62000.0, got.TP1)
}

func TestParseIgnoresUnknownLinesAndNoise(t *testing.T) {
	t.Parallel()
	got := Parse("Here is my analysis:\n\nDecision: WAIT\nConfidence: high\nRisk: thin weekend books")

	assert.Equal(t, types.DecisionWait, got.Decision)
	assert.Equal(t, "thin weekend books", got.Risk)
	assert.NotContains(t, got.Missing, "Decision")
	assert.NotContains(t, got.Missing, "Risk")
}

func TestParseLastLineWins(t *testing.T) {
	t.Parallel()
	got := Parse("Decision: LONG\nDecision: WAIT")
	assert.Equal(t, types.DecisionWait, got.Decision)
}

func TestParseIsIdempotentOnFallbackText(t *testing.T) {
	t.Parallel()
	fallback := "Decision: WAIT\nEntry: 0\nSL: 0\nTP1: 0\nTP2: 0\nRR: 1.5\nWhy: 1) openai_error 2) fallback\nRisk: unavailable"
	got := Parse(fallback)

	require.Equal(t, types.DecisionWait, got.Decision)
	assert.Equal(t, 1.5, got.RR)
	assert.Equal(t, "unavailable", got.Risk)
	assert.Empty(t, got.Missing)
}
