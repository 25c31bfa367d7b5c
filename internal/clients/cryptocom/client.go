// Package cryptocom provides the primary price oracle client backed by the
// Crypto.com Exchange public ticker API.
package cryptocom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// symbolToInstrument maps a listed symbol (or common alias) to the
// exchange instrument name. Unmapped symbols fall back to <SYMBOL>_USD.
var symbolToInstrument = map[string]string{
	"BTC":      "BTC_USD",
	"BITCOIN":  "BTC_USD",
	"ETH":      "ETH_USD",
	"ETHEREUM": "ETH_USD",
	"CRO":      "CRO_USD",
	"CRONOS":   "CRO_USD",
	"USDT":     "USDT_USD",
	"USDC":     "USDC_USD",
	"MATIC":    "MATIC_USD",
	"POLYGON":  "MATIC_USD",
	"SOL":      "SOL_USD",
	"SOLANA":   "SOL_USD",
	"ADA":      "ADA_USD",
	"CARDANO":  "ADA_USD",
	"DOT":      "DOT_USD",
	"POLKADOT": "DOT_USD",
	"ATOM":     "ATOM_USD",
	"COSMOS":   "ATOM_USD",
}

// tickerResponse mirrors the exchange public/get-tickers payload. Numeric
// fields arrive as strings.
type tickerResponse struct {
	Code   int    `json:"code"`
	Method string `json:"method"`
	Result struct {
		Data []ticker `json:"data"`
	} `json:"result"`
}

type ticker struct {
	InstrumentName string `json:"i"`
	High24h        string `json:"h"`
	Low24h         string `json:"l"`
	Latest         string `json:"a"`
	Change24h      string `json:"c"`
	Volume24h      string `json:"v"`
	Timestamp      int64  `json:"t"`
}

type cacheEntry struct {
	quote    domain.PriceQuote
	storedAt time.Time
}

// Client fetches tickers from the exchange with a short client-side cache.
// The exchange path is the high-throughput one, so its cache TTL is tighter
// than the shared oracle cache.
type Client struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewClient creates a new exchange ticker client.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		ttl:     cacheTTL,
		log:     log.With().Str("client", "cryptocom-exchange").Logger(),
		cache:   make(map[string]cacheEntry),
	}
}

// Quote fetches the current ticker for a symbol. The symbol is mapped
// through the instrument table, defaulting to <SYMBOL>_USD.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	key := normalizeKey(symbol)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.storedAt) < c.ttl {
		c.mu.Unlock()
		return entry.quote, nil
	}
	c.mu.Unlock()

	instrument := instrumentName(key)

	reqURL := fmt.Sprintf("%s/public/get-tickers?instrument_name=%s", c.baseURL, url.QueryEscape(instrument))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("build ticker request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("exchange returned status %d for %s", resp.StatusCode, instrument)
	}

	var result tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode ticker for %s: %w", instrument, domain.ErrMalformedResponse)
	}

	if result.Code != 0 || len(result.Result.Data) == 0 {
		return domain.PriceQuote{}, fmt.Errorf("no ticker data for %s: %w", instrument, domain.ErrMalformedResponse)
	}

	quote, err := parseTicker(result.Result.Data[0], key)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{quote: quote, storedAt: time.Now()}
	c.mu.Unlock()

	c.log.Debug().
		Str("symbol", key).
		Str("instrument", instrument).
		Float64("price", quote.Price).
		Msg("Fetched ticker")

	return quote, nil
}

// HealthCheck probes the exchange with the BTC_USD instrument.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Quote(ctx, "BTC")
	return err == nil
}

// ClearCache drops all cached tickers. Debug hook.
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

func parseTicker(t ticker, symbol string) (domain.PriceQuote, error) {
	price, err := strconv.ParseFloat(t.Latest, 64)
	if err != nil || price <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("ticker price %q for %s: %w", t.Latest, symbol, domain.ErrMalformedResponse)
	}

	// Change and volume are best-effort; a missing field is not a shape error.
	change, _ := strconv.ParseFloat(t.Change24h, 64)
	volume, _ := strconv.ParseFloat(t.Volume24h, 64)

	ts := t.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	return domain.PriceQuote{
		Symbol:    symbol,
		Price:     price,
		Change24h: change,
		Volume24h: volume,
		Timestamp: ts,
		Source:    domain.SourceExchange,
	}, nil
}

func instrumentName(symbol string) string {
	if mapped, ok := symbolToInstrument[symbol]; ok {
		return mapped
	}
	return symbol + "_USD"
}

func normalizeKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("exchange request: %w", domain.ErrUpstreamTimeout)
	}
	return fmt.Errorf("exchange request: %w", err)
}
