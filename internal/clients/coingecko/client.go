// Package coingecko provides the secondary price oracle client and the
// daily historical price series used by the volatility path.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// symbolToID maps listed symbols to market API coin ids. The secondary
// oracle has no <SYMBOL>_USD style guess; an unmapped symbol is a miss.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"WBTC":  "wrapped-bitcoin",
	"ETH":   "ethereum",
	"WETH":  "weth",
	"CRO":   "crypto-com-chain",
	"WCRO":  "wrapped-cro",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"VVS":   "vvs-finance",
	"MATIC": "matic-network",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"ATOM":  "cosmos",
}

// Client talks to a CoinGecko-compatible market data API.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new market data client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "coingecko").Logger(),
	}
}

// Quote fetches the current simple price with 24h stats for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	id, ok := symbolToID[key]
	if !ok {
		return domain.PriceQuote{}, fmt.Errorf("no coin id mapping for %s", key)
	}

	reqURL := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_24hr_vol=true",
		c.baseURL, id,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("market API returned status %d for %s", resp.StatusCode, id)
	}

	var result map[string]struct {
		USD          float64 `json:"usd"`
		USD24hChange float64 `json:"usd_24h_change"`
		USD24hVol    float64 `json:"usd_24h_vol"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode price for %s: %w", id, domain.ErrMalformedResponse)
	}

	entry, ok := result[id]
	if !ok || entry.USD <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("no usable price for %s: %w", id, domain.ErrMalformedResponse)
	}

	c.log.Debug().Str("symbol", key).Str("id", id).Float64("price", entry.USD).Msg("Fetched simple price")

	return domain.PriceQuote{
		Symbol:    key,
		Price:     entry.USD,
		Change24h: entry.USD24hChange,
		Volume24h: entry.USD24hVol,
		Timestamp: time.Now().UnixMilli(),
		Source:    domain.SourceMarket,
	}, nil
}

// History fetches a daily-granularity price series over the given number
// of days, chronological, oldest first.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]domain.HistoricalPricePoint, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	id, ok := symbolToID[key]
	if !ok {
		return nil, fmt.Errorf("no coin id mapping for %s", key)
	}

	reqURL := fmt.Sprintf(
		"%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		c.baseURL, id, days,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market API returned status %d for %s history", resp.StatusCode, id)
	}

	var result struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", id, domain.ErrMalformedResponse)
	}

	points := make([]domain.HistoricalPricePoint, 0, len(result.Prices))
	for _, pair := range result.Prices {
		if len(pair) != 2 {
			return nil, fmt.Errorf("history point for %s: %w", id, domain.ErrMalformedResponse)
		}
		points = append(points, domain.HistoricalPricePoint{
			Timestamp: int64(pair[0]),
			Price:     pair[1],
		})
	}

	// The volatility math assumes oldest-first ordering.
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })

	return points, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("market API request: %w", domain.ErrUpstreamTimeout)
	}
	return fmt.Errorf("market API request: %w", err)
}
