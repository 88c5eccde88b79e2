package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(writeConfig(t, "server:\n  addr: \"\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 300, cfg.Guards.CooldownSeconds)
	assert.Equal(t, 180, cfg.Guards.DedupWindowSeconds)
	assert.Equal(t, 1, cfg.Guards.QualityMinScore)
	assert.Equal(t, 2.0, cfg.Guards.RiskPerTradePct)
	assert.Equal(t, 6.0, cfg.Guards.MaxDailyRiskPct)
	assert.Equal(t, "5m", cfg.Enrich.RatioPeriod)
	assert.Equal(t, -2, cfg.News.BlockThreshold)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "trade_journal.db", cfg.Journal.Path)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(writeConfig(t, `
guards:
  forbidden_utc_hours: "2,14-16"
  cooldown_seconds: 60
  risk_per_trade_pct: 1.0
  max_daily_risk_pct: 3.0
llm:
  provider: OPENAI
  model: gpt-4o
`))
	require.NoError(t, err)
	assert.Equal(t, "2,14-16", cfg.Guards.ForbiddenUTCHours)
	assert.Equal(t, 60, cfg.Guards.CooldownSeconds)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestValidateRejectsBadRisk(t *testing.T) {
	t.Parallel()
	_, err := LoadConfig(writeConfig(t, `
guards:
  risk_per_trade_pct: 150
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk_per_trade_pct")
}

func TestValidateRejectsCapBelowPerTrade(t *testing.T) {
	t.Parallel()
	_, err := LoadConfig(writeConfig(t, `
guards:
  risk_per_trade_pct: 4.0
  max_daily_risk_pct: 3.0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_daily_risk_pct")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Parallel()
	_, err := LoadConfig(writeConfig(t, `
llm:
  provider: GEMINI
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider")
}
