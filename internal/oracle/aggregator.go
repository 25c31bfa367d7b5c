// Package oracle resolves current and historical prices by trying upstream
// sources in priority order with time-bounded caching.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// QuoteSource is a live price source tried by the aggregator.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (domain.PriceQuote, error)
}

// HistorySource provides daily historical price series.
type HistorySource interface {
	History(ctx context.Context, symbol string, days int) ([]domain.HistoricalPricePoint, error)
}

// PoolSource quotes 1 unit of a liquidity-pool-tracked token into a
// reference asset whose own price the aggregator resolves separately.
type PoolSource interface {
	Tracked(symbol string) bool
	PoolQuote(ctx context.Context, symbol string) (amountOut float64, refSymbol string, err error)
}

// Aggregator resolves prices with a fixed fallback order: fresh cache,
// primary source, secondary source, DEX pool quote, stale cache. Each
// successful live resolution updates the shared cache. A failure of one
// tier is never fatal; only full exhaustion yields ErrPriceUnavailable.
type Aggregator struct {
	cache     *Cache
	primary   QuoteSource
	secondary QuoteSource
	history   HistorySource
	pools     PoolSource
	log       zerolog.Logger
}

// New creates a price oracle aggregator. secondary, history and pools may
// be nil; the corresponding tiers are then skipped.
func New(cache *Cache, primary, secondary QuoteSource, history HistorySource, pools PoolSource, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		cache:     cache,
		primary:   primary,
		secondary: secondary,
		history:   history,
		pools:     pools,
		log:       log.With().Str("service", "price_oracle").Logger(),
	}
}

// GetPrice resolves the current price for a symbol. Symbols are
// case-insensitive.
func (a *Aggregator) GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	return a.resolve(ctx, symbol, true)
}

// GetPrices resolves several symbols, skipping those that fail entirely.
func (a *Aggregator) GetPrices(ctx context.Context, symbols []string) map[string]domain.PriceQuote {
	quotes := make(map[string]domain.PriceQuote, len(symbols))
	for _, symbol := range symbols {
		quote, err := a.GetPrice(ctx, symbol)
		if err != nil {
			a.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol in batch price fetch")
			continue
		}
		quotes[strings.ToUpper(symbol)] = quote
	}
	return quotes
}

// GetHistoricalPrices returns a daily series over the requested number of
// days, oldest first. On upstream failure it returns an empty slice:
// callers must treat that as insufficient data, never as zero volatility.
func (a *Aggregator) GetHistoricalPrices(ctx context.Context, symbol string, days int) []domain.HistoricalPricePoint {
	if a.history == nil {
		return nil
	}

	points, err := a.history.History(ctx, symbol, days)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Int("days", days).Msg("Historical series fetch failed")
		return nil
	}
	return points
}

// ClearCache drops the shared quote cache. Debug hook.
func (a *Aggregator) ClearCache() {
	a.cache.Clear()
}

// CacheStats returns the shared cache size and cached symbols.
func (a *Aggregator) CacheStats() (int, []string) {
	return a.cache.Stats()
}

// resolve walks the source tiers. allowPool guards the single level of
// DEX-quote recursion: the reference asset's own lookup must never fall
// back to DEX pricing, or two pool tokens quoted against each other would
// cycle.
func (a *Aggregator) resolve(ctx context.Context, symbol string, allowPool bool) (domain.PriceQuote, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))

	if quote, ok := a.cache.Fresh(key); ok {
		quote.Source = domain.SourceCache
		return quote, nil
	}

	if a.primary != nil {
		quote, err := a.primary.Quote(ctx, key)
		if err == nil && quote.Price > 0 {
			a.cache.Put(key, quote)
			return quote, nil
		}
		a.log.Warn().Err(err).Str("symbol", key).Msg("Primary oracle failed, trying secondary")
	}

	if a.secondary != nil {
		quote, err := a.secondary.Quote(ctx, key)
		if err == nil && quote.Price > 0 {
			a.cache.Put(key, quote)
			return quote, nil
		}
		a.log.Warn().Err(err).Str("symbol", key).Msg("Secondary oracle failed")
	}

	if allowPool && a.pools != nil && a.pools.Tracked(key) {
		if quote, err := a.poolPrice(ctx, key); err == nil {
			a.cache.Put(key, quote)
			return quote, nil
		} else {
			a.log.Warn().Err(err).Str("symbol", key).Msg("DEX pool pricing failed")
		}
	}

	if quote, ok := a.cache.Any(key); ok {
		age := time.Now().UnixMilli() - quote.Timestamp
		a.log.Warn().
			Str("symbol", key).
			Int64("age_ms", age).
			Msg("All live sources failed, serving stale cached quote")
		quote.Source = domain.SourceStaleCache
		return quote, nil
	}

	return domain.PriceQuote{}, fmt.Errorf("%s: %w", key, domain.ErrPriceUnavailable)
}

// poolPrice turns a pool quote denominated in the reference asset into a
// USD quote by resolving the reference asset's price one level deep.
func (a *Aggregator) poolPrice(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	amountOut, refSymbol, err := a.pools.PoolQuote(ctx, symbol)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	refQuote, err := a.resolve(ctx, refSymbol, false)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("reference asset %s: %w", refSymbol, err)
	}

	return domain.PriceQuote{
		Symbol:    symbol,
		Price:     amountOut * refQuote.Price,
		Timestamp: time.Now().UnixMilli(),
		Source:    domain.SourceDEX,
	}, nil
}
