package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/types"
)

// Headlines older than this are stale for intraday decisions.
const maxHeadlineAge = 48 * time.Hour

// Scraper pulls crypto headlines from Google News. It is the fallback
// feed for when the CryptoPanic API yields nothing (no token, quota,
// or an unlisted currency).
type Scraper struct {
	timeout time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{timeout: timeout}
}

// ScrapeGoogleNews searches Google News for recent headlines about a
// coin. Headlines get the same keyword score as API posts.
func (s *Scraper) ScrapeGoogleNews(ctx context.Context, symbol string, maxPosts int) ([]types.NewsPost, error) {
	posts := []types.NewsPost{}

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(posts) >= maxPosts {
			return
		}
		title := strings.TrimSpace(e.ChildText("h3, h4"))
		if title == "" {
			return
		}
		if stale(e.DOM, time.Now()) {
			return
		}
		if len(title) > 200 {
			title = title[:200]
		}
		posts = append(posts, types.NewsPost{
			Title: title,
			Score: scorePost(title, nil),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "google news scrape error", "url", r.Request.URL.String(), "error", err)
	})

	query := url.QueryEscape(coinQuery(symbol) + " crypto news")
	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", query)

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("google news scrape: %w", err)
	}
	c.Wait()

	return posts, nil
}

// stale reports whether the article's <time datetime> attribute is
// older than the freshness window. Articles without one are kept.
func stale(sel *goquery.Selection, now time.Time) bool {
	dt, ok := sel.Find("time").Attr("datetime")
	if !ok {
		return false
	}
	ts, err := time.Parse(time.RFC3339, dt)
	if err != nil {
		return false
	}
	return now.Sub(ts) > maxHeadlineAge
}

// coinQuery strips the quote asset so "BTCUSDT" searches as "BTC".
func coinQuery(symbol string) string {
	up := strings.ToUpper(symbol)
	for _, quote := range []string{"USDT", "USDC", "BUSD", "USD"} {
		if base, ok := strings.CutSuffix(up, quote); ok && base != "" {
			return base
		}
	}
	return up
}
