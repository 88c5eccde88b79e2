package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Guards struct {
		ForbiddenUTCHours  string  `yaml:"forbidden_utc_hours"` // "0-3" or "2,14-16"
		CooldownSeconds    int     `yaml:"cooldown_seconds"`
		DedupWindowSeconds int     `yaml:"dedup_window_seconds"`
		QualityMinScore    int     `yaml:"quality_min_score"`
		RiskPerTradePct    float64 `yaml:"risk_per_trade_pct"`
		MaxDailyRiskPct    float64 `yaml:"max_daily_risk_pct"`
	} `yaml:"guards"`
	Enrich struct {
		FundingTTLSeconds     int    `yaml:"funding_ttl_seconds"`
		RatioTTLSeconds       int    `yaml:"ratio_ttl_seconds"`
		LiquidationTTLSeconds int    `yaml:"liquidation_ttl_seconds"`
		RatioPeriod           string `yaml:"ratio_period"`
		TimeoutSeconds        int    `yaml:"timeout_seconds"`
	} `yaml:"enrich"`
	News struct {
		BlockEnabled   bool `yaml:"block_enabled"`
		BlockThreshold int  `yaml:"block_threshold"` // block when score <= threshold
		MaxPosts       int  `yaml:"max_posts"`
		TTLSeconds     int  `yaml:"ttl_seconds"`
		FallbackScrape bool `yaml:"fallback_scrape"`
	} `yaml:"news"`
	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI or empty for fallback
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
	Telegram struct {
		Forward          bool   `yaml:"forward"`
		ChannelID        string `yaml:"channel_id"`
		JournalChannelID string `yaml:"journal_channel_id"`
	} `yaml:"telegram"`
	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

func (c *Config) Validate() error {
	if c.Guards.RiskPerTradePct <= 0 || c.Guards.RiskPerTradePct > 100 {
		return fmt.Errorf("guards.risk_per_trade_pct must be between 0-100, got %.2f", c.Guards.RiskPerTradePct)
	}
	if c.Guards.MaxDailyRiskPct < c.Guards.RiskPerTradePct {
		return fmt.Errorf("guards.max_daily_risk_pct %.2f is below risk_per_trade_pct %.2f",
			c.Guards.MaxDailyRiskPct, c.Guards.RiskPerTradePct)
	}
	if c.Guards.CooldownSeconds < 0 || c.Guards.DedupWindowSeconds < 0 {
		return fmt.Errorf("guard windows must not be negative")
	}
	if c.LLM.Provider != "" && c.LLM.Provider != "OPENAI" {
		return fmt.Errorf("invalid llm.provider '%s': must be 'OPENAI' or empty", c.LLM.Provider)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Guards.CooldownSeconds == 0 {
		c.Guards.CooldownSeconds = 300
	}
	if c.Guards.DedupWindowSeconds == 0 {
		c.Guards.DedupWindowSeconds = 180
	}
	if c.Guards.QualityMinScore == 0 {
		c.Guards.QualityMinScore = 1
	}
	if c.Guards.RiskPerTradePct == 0 {
		c.Guards.RiskPerTradePct = 2.0
	}
	if c.Guards.MaxDailyRiskPct == 0 {
		c.Guards.MaxDailyRiskPct = 6.0
	}
	if c.Enrich.FundingTTLSeconds == 0 {
		c.Enrich.FundingTTLSeconds = 60
	}
	if c.Enrich.RatioTTLSeconds == 0 {
		c.Enrich.RatioTTLSeconds = 60
	}
	if c.Enrich.LiquidationTTLSeconds == 0 {
		c.Enrich.LiquidationTTLSeconds = 60
	}
	if c.Enrich.RatioPeriod == "" {
		c.Enrich.RatioPeriod = "5m"
	}
	if c.Enrich.TimeoutSeconds == 0 {
		c.Enrich.TimeoutSeconds = 5
	}
	if c.News.BlockThreshold == 0 {
		c.News.BlockThreshold = -2
	}
	if c.News.MaxPosts == 0 {
		c.News.MaxPosts = 10
	}
	if c.News.TTLSeconds == 0 {
		c.News.TTLSeconds = 60
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 350
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "trade_journal.db"
	}
}
