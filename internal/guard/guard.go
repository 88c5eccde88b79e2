package guard

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gpt-signal-relay/internal/types"
)

// Config are the gating knobs, one value set per process.
type Config struct {
	ForbiddenUTCHours  string // comma-separated hours or inclusive A-B ranges
	CooldownSeconds    int
	DedupWindowSeconds int
	RiskPerTradePct    float64
	MaxDailyRiskPct    float64
}

type hashStamp struct {
	hash string
	at   time.Time
}

// Guard holds the process-wide mutable gating state. All methods are
// safe for concurrent use; state is never mutated outside the mutex.
type Guard struct {
	cfg Config

	mu         sync.Mutex
	lastSignal map[string]time.Time
	lastHash   map[string]hashStamp
	riskUsed   float64
	riskDay    string // UTC calendar date the budget applies to
}

func New(cfg Config) *Guard {
	return &Guard{
		cfg:        cfg,
		lastSignal: make(map[string]time.Time),
		lastHash:   make(map[string]hashStamp),
	}
}

// Evaluate runs the ordered gate sequence for one alert. A nil return
// means the alert may proceed. Cooldown and dedup state is committed as
// soon as those two checks pass; a later daily-risk (or downstream
// quality/news) rejection still consumes the slot.
func (g *Guard) Evaluate(symbol, payload string, now time.Time) *types.Result {
	if g.inForbiddenHours(now) {
		return types.Reject("forbidden_hours")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cooldown := time.Duration(g.cfg.CooldownSeconds) * time.Second
	if last, ok := g.lastSignal[symbol]; ok {
		if elapsed := now.Sub(last); elapsed < cooldown {
			left := int((cooldown - elapsed).Seconds())
			return types.Reject(fmt.Sprintf("COOLDOWN active (%ds left)", left))
		}
	}

	h := payloadHash(payload)
	window := time.Duration(g.cfg.DedupWindowSeconds) * time.Second
	if prev, ok := g.lastHash[symbol]; ok && prev.hash == h && now.Sub(prev.at) < window {
		return types.Reject("DUPLICATE within window")
	}

	g.lastSignal[symbol] = now
	g.lastHash[symbol] = hashStamp{hash: h, at: now}

	g.rollDayLocked(now)
	if g.riskUsed+g.cfg.RiskPerTradePct > g.cfg.MaxDailyRiskPct {
		return types.Reject("daily_risk_cap")
	}
	return nil
}

// RecordLoss charges one per-trade risk unit against today's budget.
// This is the only way the budget grows; wins never shrink it.
func (g *Guard) RecordLoss(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDayLocked(now)
	g.riskUsed += g.cfg.RiskPerTradePct
}

// RiskUsed reports the budget consumed for the UTC day containing now.
func (g *Guard) RiskUsed(now time.Time) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDayLocked(now)
	return g.riskUsed
}

// rollDayLocked lazily resets the budget on UTC date change.
func (g *Guard) rollDayLocked(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if g.riskDay != day {
		g.riskDay = day
		g.riskUsed = 0
	}
}

func (g *Guard) inForbiddenHours(now time.Time) bool {
	ranges := strings.TrimSpace(g.cfg.ForbiddenUTCHours)
	if ranges == "" {
		return false
	}
	h := now.UTC().Hour()
	for _, part := range strings.Split(ranges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, err1 := strconv.Atoi(strings.TrimSpace(a))
			hi, err2 := strconv.Atoi(strings.TrimSpace(b))
			if err1 == nil && err2 == nil && lo <= h && h <= hi {
				return true
			}
			continue
		}
		if v, err := strconv.Atoi(part); err == nil && v == h {
			return true
		}
	}
	return false
}

func payloadHash(payload string) string {
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// PayloadKey builds the canonical dedup payload for an alert.
func PayloadKey(symbol, timeframe, setup string, price float64, context string) string {
	return fmt.Sprintf("%s|%s|%s|%v|%s", symbol, timeframe, setup, price, context)
}
