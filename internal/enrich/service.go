package enrich

import (
	"context"
	"time"

	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/types"
)

// Config controls cache freshness and the upstream call budget.
type Config struct {
	FundingTTL     time.Duration
	RatioTTL       time.Duration
	LiquidationTTL time.Duration
	RatioPeriod    string
	Timeout        time.Duration
}

// Service assembles the free-data enrichment snapshot. Every field is
// best effort: an upstream failure logs a warning and leaves the field
// nil rather than failing the alert.
type Service struct {
	cfg     Config
	binance *BinanceClient

	funding *TTLCache[float64]
	ratio   *TTLCache[float64]
	liq     *TTLCache[int]
}

func NewService(cfg Config) *Service {
	return &Service{
		cfg:     cfg,
		binance: NewBinanceClient(cfg.Timeout),
		funding: NewTTLCache[float64](),
		ratio:   NewTTLCache[float64](),
		liq:     NewTTLCache[int](),
	}
}

func (s *Service) Snapshot(ctx context.Context, symbol string) types.Enrichment {
	var e types.Enrichment

	if v, err := s.funding.GetOrFetch(symbol, s.cfg.FundingTTL, func() (float64, error) {
		return s.binance.FundingRate(ctx, symbol)
	}); err == nil {
		e.Funding = &v
	} else {
		logger.Warn(ctx, "funding rate unavailable", "symbol", symbol, "error", err)
	}

	if v, err := s.ratio.GetOrFetch("global", s.cfg.RatioTTL, func() (float64, error) {
		return s.binance.LongShortRatio(ctx, s.cfg.RatioPeriod)
	}); err == nil {
		e.LongShortRatio = &v
	} else {
		logger.Warn(ctx, "long/short ratio unavailable", "error", err)
	}

	if v, err := s.liq.GetOrFetch("global", s.cfg.LiquidationTTL, func() (int, error) {
		return s.binance.RecentLiquidations(ctx)
	}); err == nil {
		e.Liquidations = &v
	} else {
		logger.Warn(ctx, "liquidation proxy unavailable", "error", err)
	}

	return e
}
