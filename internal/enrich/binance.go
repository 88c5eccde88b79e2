package enrich

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const fapiBaseURL = "https://fapi.binance.com"

// Notional threshold for the liquidation proxy: an agg trade bigger
// than this is counted as forced-liquidation-sized flow.
const liqNotionalUSD = 2_000_000

// BinanceClient reads public Binance futures data. No credentials needed.
type BinanceClient struct {
	http *resty.Client
}

func NewBinanceClient(timeout time.Duration) *BinanceClient {
	client := resty.New()
	client.SetBaseURL(fapiBaseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "gpt-signal-relay/1.2")
	return &BinanceClient{http: client}
}

// FundingRate returns the last funding rate for a perp symbol.
func (c *BinanceClient) FundingRate(ctx context.Context, symbol string) (float64, error) {
	var out struct {
		LastFundingRate string `json:"lastFundingRate"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&out).
		Get("/fapi/v1/premiumIndex")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("premiumIndex http %d", resp.StatusCode())
	}
	return strconv.ParseFloat(out.LastFundingRate, 64)
}

// LongShortRatio returns the global top-trader long/short account ratio
// (BTCUSDT is used as the market-wide proxy, as in the original feed).
func (c *BinanceClient) LongShortRatio(ctx context.Context, period string) (float64, error) {
	var out []struct {
		LongAccount  string `json:"longAccount"`
		ShortAccount string `json:"shortAccount"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": "BTCUSDT",
			"period": period,
			"limit":  "1",
		}).
		SetResult(&out).
		Get("/futures/data/topLongShortAccountRatio")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("topLongShortAccountRatio http %d", resp.StatusCode())
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("topLongShortAccountRatio: empty response")
	}
	last := out[len(out)-1]
	long, err := strconv.ParseFloat(last.LongAccount, 64)
	if err != nil {
		return 0, err
	}
	short, err := strconv.ParseFloat(last.ShortAccount, 64)
	if err != nil {
		return 0, err
	}
	if short == 0 {
		return 0, fmt.Errorf("topLongShortAccountRatio: zero short side")
	}
	return long / short, nil
}

// RecentLiquidations counts whale-sized trades among the last 50 BTCUSDT
// agg trades. A crude proxy, but free and good enough as an activity flag.
func (c *BinanceClient) RecentLiquidations(ctx context.Context) (int, error) {
	var trades []struct {
		Price    string `json:"p"`
		Quantity string `json:"q"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": "BTCUSDT",
			"limit":  "50",
		}).
		SetResult(&trades).
		Get("/fapi/v1/aggTrades")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("aggTrades http %d", resp.StatusCode())
	}

	count := 0
	for _, t := range trades {
		p, err1 := strconv.ParseFloat(t.Price, 64)
		q, err2 := strconv.ParseFloat(t.Quantity, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if p*q > liqNotionalUSD {
			count++
		}
	}
	return count, nil
}
