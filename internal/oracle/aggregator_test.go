package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcore/internal/domain"
)

type stubQuoteSource struct {
	quotes map[string]domain.PriceQuote
	err    error
	calls  int
}

func (s *stubQuoteSource) Quote(_ context.Context, symbol string) (domain.PriceQuote, error) {
	s.calls++
	if s.err != nil {
		return domain.PriceQuote{}, s.err
	}
	quote, ok := s.quotes[symbol]
	if !ok {
		return domain.PriceQuote{}, domain.ErrMalformedResponse
	}
	return quote, nil
}

type stubPoolSource struct {
	tracked   map[string]bool
	amountOut float64
	refSymbol string
	err       error
}

func (s *stubPoolSource) Tracked(symbol string) bool {
	return s.tracked[symbol]
}

func (s *stubPoolSource) PoolQuote(_ context.Context, _ string) (float64, string, error) {
	return s.amountOut, s.refSymbol, s.err
}

type stubHistorySource struct {
	points []domain.HistoricalPricePoint
	err    error
}

func (s *stubHistorySource) History(_ context.Context, _ string, _ int) ([]domain.HistoricalPricePoint, error) {
	return s.points, s.err
}

func newTestAggregator(primary, secondary QuoteSource, history HistorySource, pools PoolSource) (*Aggregator, *Cache) {
	cache := NewCache(time.Minute)
	return New(cache, primary, secondary, history, pools, zerolog.Nop()), cache
}

func TestGetPriceFreshCacheFirst(t *testing.T) {
	primary := &stubQuoteSource{quotes: map[string]domain.PriceQuote{
		"BTC": {Symbol: "BTC", Price: 51000, Source: domain.SourceExchange},
	}}
	agg, cache := newTestAggregator(primary, nil, nil, nil)

	cache.Put("BTC", domain.PriceQuote{Symbol: "BTC", Price: 50000, Source: domain.SourceExchange})

	quote, err := agg.GetPrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, quote.Price)
	assert.Equal(t, domain.SourceCache, quote.Source, "cache hits must be tagged as cache-sourced")
	assert.Equal(t, 0, primary.calls, "fresh cache hit must not touch the primary source")
}

func TestGetPricePrimaryUpdatesCache(t *testing.T) {
	primary := &stubQuoteSource{quotes: map[string]domain.PriceQuote{
		"ETH": {Symbol: "ETH", Price: 3200, Timestamp: time.Now().UnixMilli(), Source: domain.SourceExchange},
	}}
	agg, cache := newTestAggregator(primary, nil, nil, nil)

	quote, err := agg.GetPrice(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceExchange, quote.Source)

	cached, ok := cache.Fresh("ETH")
	require.True(t, ok, "live resolution must populate the shared cache")
	assert.Equal(t, 3200.0, cached.Price)
}

func TestGetPriceFallsBackToSecondary(t *testing.T) {
	primary := &stubQuoteSource{err: domain.ErrUpstreamTimeout}
	secondary := &stubQuoteSource{quotes: map[string]domain.PriceQuote{
		"CRO": {Symbol: "CRO", Price: 0.12, Source: domain.SourceMarket},
	}}
	agg, _ := newTestAggregator(primary, secondary, nil, nil)

	quote, err := agg.GetPrice(context.Background(), "CRO")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceMarket, quote.Source)
	assert.Equal(t, 1, primary.calls, "primary must be tried before secondary")
}

func TestGetPriceDEXPoolQuote(t *testing.T) {
	// VVS is only priced via the pool; the reference asset WCRO resolves
	// through the secondary source.
	primary := &stubQuoteSource{err: domain.ErrUpstreamTimeout}
	secondary := &stubQuoteSource{quotes: map[string]domain.PriceQuote{
		"WCRO": {Symbol: "WCRO", Price: 0.10, Source: domain.SourceMarket},
	}}
	pools := &stubPoolSource{
		tracked:   map[string]bool{"VVS": true},
		amountOut: 0.00025,
		refSymbol: "WCRO",
	}
	agg, cache := newTestAggregator(primary, secondary, nil, pools)

	quote, err := agg.GetPrice(context.Background(), "VVS")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDEX, quote.Source)
	assert.InDelta(t, 0.000025, quote.Price, 1e-12)

	_, ok := cache.Fresh("VVS")
	assert.True(t, ok, "pool-derived quote must be cached")
}

func TestGetPricePoolRecursionIsOneLevel(t *testing.T) {
	// Both symbols are pool-tracked and reference each other. The inner
	// lookup must not re-enter the pool tier, so resolution fails instead
	// of cycling.
	primary := &stubQuoteSource{err: domain.ErrUpstreamTimeout}
	pools := &stubPoolSource{
		tracked:   map[string]bool{"VVS": true, "WCRO": true},
		amountOut: 1,
		refSymbol: "WCRO",
	}
	agg, _ := newTestAggregator(primary, nil, nil, pools)

	_, err := agg.GetPrice(context.Background(), "VVS")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestGetPriceServesStaleCache(t *testing.T) {
	primary := &stubQuoteSource{err: domain.ErrUpstreamTimeout}
	cache := NewCache(time.Millisecond)
	agg := New(cache, primary, nil, nil, nil, zerolog.Nop())

	cache.Put("BTC", domain.PriceQuote{Symbol: "BTC", Price: 48000, Timestamp: time.Now().UnixMilli()})
	time.Sleep(5 * time.Millisecond)

	quote, err := agg.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 48000.0, quote.Price)
	assert.Equal(t, domain.SourceStaleCache, quote.Source)
}

func TestGetPriceAllTiersExhausted(t *testing.T) {
	primary := &stubQuoteSource{err: domain.ErrUpstreamTimeout}
	secondary := &stubQuoteSource{err: errors.New("rate limited")}
	agg, _ := newTestAggregator(primary, secondary, nil, nil)

	_, err := agg.GetPrice(context.Background(), "DOGE")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.Contains(t, err.Error(), "DOGE")
}

func TestGetPricesSkipsFailures(t *testing.T) {
	primary := &stubQuoteSource{quotes: map[string]domain.PriceQuote{
		"BTC": {Symbol: "BTC", Price: 50000},
		"ETH": {Symbol: "ETH", Price: 3000},
	}}
	agg, _ := newTestAggregator(primary, nil, nil, nil)

	quotes := agg.GetPrices(context.Background(), []string{"BTC", "ETH", "UNKNOWN"})
	assert.Len(t, quotes, 2)
	assert.Contains(t, quotes, "BTC")
	assert.Contains(t, quotes, "ETH")
	assert.NotContains(t, quotes, "UNKNOWN")
}

func TestGetHistoricalPricesFailureYieldsEmpty(t *testing.T) {
	agg, _ := newTestAggregator(nil, nil, &stubHistorySource{err: domain.ErrUpstreamTimeout}, nil)

	points := agg.GetHistoricalPrices(context.Background(), "BTC", 30)
	assert.Empty(t, points)
}

func TestGetHistoricalPricesPassThrough(t *testing.T) {
	series := []domain.HistoricalPricePoint{
		{Timestamp: 1, Price: 100},
		{Timestamp: 2, Price: 110},
	}
	agg, _ := newTestAggregator(nil, nil, &stubHistorySource{points: series}, nil)

	points := agg.GetHistoricalPrices(context.Background(), "BTC", 2)
	assert.Equal(t, series, points)
}
