package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/types"
)

// Config controls the news gate.
type Config struct {
	BlockEnabled   bool
	BlockThreshold int // block when total score <= threshold
	MaxPosts       int
	TTL            time.Duration
	FallbackScrape bool
	Timeout        time.Duration
}

type poster interface {
	Posts(ctx context.Context, symbol string, maxPosts int) ([]types.NewsPost, error)
}

// Service aggregates scored headlines per symbol with a short cache.
// A dead feed degrades to a neutral signal; it never blocks trading
// by itself.
type Service struct {
	cfg     Config
	api     poster
	scraper *Scraper

	cache *cache
}

func NewService(cfg Config, apiToken string) *Service {
	s := &Service{
		cfg:   cfg,
		api:   NewCryptoPanicClient(apiToken, cfg.Timeout),
		cache: newCache(cfg.TTL),
	}
	if cfg.FallbackScrape {
		s.scraper = NewScraper(cfg.Timeout)
	}
	return s
}

func (s *Service) Signal(ctx context.Context, symbol string) types.NewsSignal {
	key := strings.ToUpper(symbol)
	if sig, ok := s.cache.get(key); ok {
		return sig
	}

	posts, err := s.api.Posts(ctx, key, s.cfg.MaxPosts)
	if err != nil {
		logger.Warn(ctx, "news feed unavailable", "symbol", key, "error", err)
		posts = nil
	}
	if len(posts) == 0 && s.scraper != nil {
		scraped, err := s.scraper.ScrapeGoogleNews(ctx, key, s.cfg.MaxPosts)
		if err != nil {
			logger.Warn(ctx, "news fallback unavailable", "symbol", key, "error", err)
		} else {
			posts = scraped
		}
	}

	sig := s.aggregate(posts)
	s.cache.set(key, sig)
	return sig
}

func (s *Service) aggregate(posts []types.NewsPost) types.NewsSignal {
	total := 0
	for _, p := range posts {
		total += p.Score
	}

	briefs := make([]string, 0, 5)
	for _, p := range posts {
		if len(briefs) == 5 {
			break
		}
		title := p.Title
		if len(title) > 80 {
			title = title[:80]
		}
		briefs = append(briefs, fmt.Sprintf("%s(%+d)", title, p.Score))
	}

	return types.NewsSignal{
		Score: total,
		Brief: strings.Join(briefs, "; "),
		Posts: posts,
		Block: s.cfg.BlockEnabled && total <= s.cfg.BlockThreshold,
	}
}
