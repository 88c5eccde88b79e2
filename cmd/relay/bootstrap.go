package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gpt-signal-relay/internal/enrich"
	"gpt-signal-relay/internal/guard"
	"gpt-signal-relay/internal/interfaces"
	"gpt-signal-relay/internal/llm/fallback"
	"gpt-signal-relay/internal/llm/llmobs"
	"gpt-signal-relay/internal/llm/openai"
	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/news"
	"gpt-signal-relay/internal/pipeline"
	"gpt-signal-relay/internal/store"
	"gpt-signal-relay/internal/trace"
	"gpt-signal-relay/internal/tradelog"
)

// initializeSystem loads the environment and sets up logging + tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips old tradelog files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("RELAY_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

func initializeGuard(cfg *store.Config) *guard.Guard {
	return guard.New(guard.Config{
		ForbiddenUTCHours:  cfg.Guards.ForbiddenUTCHours,
		CooldownSeconds:    cfg.Guards.CooldownSeconds,
		DedupWindowSeconds: cfg.Guards.DedupWindowSeconds,
		RiskPerTradePct:    cfg.Guards.RiskPerTradePct,
		MaxDailyRiskPct:    cfg.Guards.MaxDailyRiskPct,
	})
}

func initializeMarketData(cfg *store.Config) interfaces.MarketData {
	return enrich.NewService(enrich.Config{
		FundingTTL:     time.Duration(cfg.Enrich.FundingTTLSeconds) * time.Second,
		RatioTTL:       time.Duration(cfg.Enrich.RatioTTLSeconds) * time.Second,
		LiquidationTTL: time.Duration(cfg.Enrich.LiquidationTTLSeconds) * time.Second,
		RatioPeriod:    cfg.Enrich.RatioPeriod,
		Timeout:        time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second,
	})
}

func initializeNews(ctx context.Context, cfg *store.Config) interfaces.NewsProvider {
	token := os.Getenv("CRYPTOPANIC_API_TOKEN")
	if token == "" {
		logger.Warn(ctx, "CRYPTOPANIC_API_TOKEN not set - news gate degrades to neutral")
	}
	return news.NewService(news.Config{
		BlockEnabled:   cfg.News.BlockEnabled,
		BlockThreshold: cfg.News.BlockThreshold,
		MaxPosts:       cfg.News.MaxPosts,
		TTL:            time.Duration(cfg.News.TTLSeconds) * time.Second,
		FallbackScrape: cfg.News.FallbackScrape,
		Timeout:        6 * time.Second,
	}, token)
}

// initializeDecider picks the model backend and wraps it with
// observability middleware.
func initializeDecider(ctx context.Context, cfg *store.Config) interfaces.Decider {
	var decider interfaces.Decider
	switch cfg.LLM.Provider {
	case "OPENAI":
		decider = openai.NewDecider(openai.Config{
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	default:
		decider = fallback.NewDecider()
		logger.Warn(ctx, "No LLM provider configured - every signal will be WAIT")
	}
	return llmobs.Wrap(decider)
}

func initializePipeline(cfg *store.Config, g *guard.Guard, market interfaces.MarketData,
	newsSvc interfaces.NewsProvider, decider interfaces.Decider,
	j interfaces.Journal, n interfaces.Notifier) interfaces.SignalPipeline {
	return pipeline.New(pipeline.Config{
		QualityMinScore:  cfg.Guards.QualityMinScore,
		Forward:          cfg.Telegram.Forward,
		ChannelID:        cfg.Telegram.ChannelID,
		JournalChannelID: cfg.Telegram.JournalChannelID,
	}, g, market, newsSvc, decider, j, n)
}
