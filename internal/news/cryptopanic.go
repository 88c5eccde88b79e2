package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"gpt-signal-relay/internal/types"
)

const cryptoPanicURL = "https://cryptopanic.com/api/v1/posts/"

// CryptoPanicClient fetches rising English-language posts for a currency.
type CryptoPanicClient struct {
	http  *resty.Client
	token string
}

func NewCryptoPanicClient(token string, timeout time.Duration) *CryptoPanicClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "gpt-signal-relay/1.2")
	return &CryptoPanicClient{http: client, token: token}
}

type cryptoPanicPost struct {
	Title  string   `json:"title"`
	Kind   string   `json:"kind"`
	Labels []string `json:"labels"`
}

type cryptoPanicResponse struct {
	Results []cryptoPanicPost `json:"results"`
}

// Posts returns scored headlines. Without a token the feed is simply
// unavailable and an empty slice comes back.
func (c *CryptoPanicClient) Posts(ctx context.Context, symbol string, maxPosts int) ([]types.NewsPost, error) {
	if c.token == "" {
		return nil, nil
	}

	var out cryptoPanicResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"auth_token": c.token,
			"currencies": strings.ToUpper(symbol),
			"filter":     "rising",
			"regions":    "en",
			"public":     "true",
		}).
		SetResult(&out).
		Get(cryptoPanicURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cryptopanic http %d", resp.StatusCode())
	}

	results := out.Results
	if len(results) > maxPosts {
		results = results[:maxPosts]
	}

	posts := make([]types.NewsPost, 0, len(results))
	for _, p := range results {
		title := p.Title
		if len(title) > 200 {
			title = title[:200]
		}
		labels := p.Labels
		if p.Kind != "" {
			labels = append(labels, p.Kind)
		}
		posts = append(posts, types.NewsPost{
			Title: title,
			Score: scorePost(title, labels),
		})
	}
	return posts, nil
}

// scorePost applies the keyword vote: bullish +1, bearish -1, and
// editor-flagged important posts get an extra +1.
func scorePost(title string, labels []string) int {
	txt := strings.ToLower(title + " " + strings.Join(labels, " "))
	score := 0
	if strings.Contains(txt, "bullish") {
		score++
	}
	if strings.Contains(txt, "bearish") {
		score--
	}
	if strings.Contains(txt, "important") {
		score++
	}
	return score
}
