// Package domain holds the pure value types shared across the risk
// analytics pipeline. Types here carry no infrastructure dependencies and
// are never mutated after construction.
package domain

import "strings"

// PriceSource identifies which tier of the oracle produced a quote.
type PriceSource string

const (
	// SourceCache - served from the shared quote cache within its TTL
	SourceCache PriceSource = "cache"
	// SourceStaleCache - served from the cache past its TTL because every
	// live source failed
	SourceStaleCache PriceSource = "stale_cache"
	// SourceExchange - primary oracle (exchange ticker API)
	SourceExchange PriceSource = "cryptocom-exchange"
	// SourceMarket - secondary oracle (market data API)
	SourceMarket PriceSource = "coingecko"
	// SourceDEX - last-resort on-chain constant-product router quote
	SourceDEX PriceSource = "dex"
)

// PriceQuote is a resolved spot price for a symbol. Immutable once created.
type PriceQuote struct {
	Symbol    string      `json:"symbol"`
	Price     float64     `json:"price"`
	Change24h float64     `json:"change_24h"`
	Volume24h float64     `json:"volume_24h"`
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
	Source    PriceSource `json:"source"`
}

// HistoricalPricePoint is one daily observation in a chronological series
// (oldest first).
type HistoricalPricePoint struct {
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
	Price     float64 `json:"price"`
}

// TokenHolding is one priced position inside a snapshot. Symbol is the raw
// listed symbol and is what pricing lookups use; Normalized is only for
// deduplication in asset-discovery contexts.
type TokenHolding struct {
	Symbol     string  `json:"symbol"`
	Normalized string  `json:"normalized"`
	Balance    float64 `json:"balance"`
	USDValue   float64 `json:"usd_value"`
}

// PortfolioSnapshot is a point-in-time view of an address's priced
// holdings. TotalValue always equals the sum of the holdings' USD values.
type PortfolioSnapshot struct {
	Address     string         `json:"address"`
	TotalValue  float64        `json:"total_value"`
	Holdings    []TokenHolding `json:"holdings"`
	LastUpdated int64          `json:"last_updated"` // Unix milliseconds
}

// ExposureEntry is the per-asset share of portfolio value plus its
// risk-multiplier-weighted contribution to the aggregate score.
type ExposureEntry struct {
	Asset        string  `json:"asset"`
	Exposure     float64 `json:"exposure"`     // percent of total value, [0,100]
	Contribution float64 `json:"contribution"` // exposure scaled by the asset-class multiplier
}

// CashAsset is the sentinel asset name for the "no tracked positions"
// exposure entry, distinguishing an all-cash portfolio from a data failure.
const CashAsset = "CASH"

// IsCashSentinel reports whether exposures is exactly the all-cash
// sentinel entry.
func IsCashSentinel(exposures []ExposureEntry) bool {
	return len(exposures) == 1 && exposures[0].Asset == CashAsset
}

// Sentiment is the discrete market-sentiment signal.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// PredictionRecommendation is the suggested action attached to a
// prediction-market event.
type PredictionRecommendation string

const (
	RecommendationHedge   PredictionRecommendation = "HEDGE"
	RecommendationMonitor PredictionRecommendation = "MONITOR"
	RecommendationNone    PredictionRecommendation = "NONE"
)

// PredictionImpact is the expected market impact of a prediction-market
// event.
type PredictionImpact string

const (
	ImpactLow    PredictionImpact = "LOW"
	ImpactMedium PredictionImpact = "MEDIUM"
	ImpactHigh   PredictionImpact = "HIGH"
)

// Prediction is one probabilistic market-event record from the
// prediction-market insight API.
type Prediction struct {
	Probability    float64                  `json:"probability"` // [0,100]
	Recommendation PredictionRecommendation `json:"recommendation"`
	Impact         PredictionImpact         `json:"impact"`
}

// RiskAnalysis is the complete output of one risk assessment. Created once
// per request and never mutated; ProofHandle is attached afterwards by the
// orchestration layer, not by the scorer.
type RiskAnalysis struct {
	PortfolioID     int64           `json:"portfolio_id"`
	Timestamp       int64           `json:"timestamp"` // Unix milliseconds
	TotalRisk       float64         `json:"total_risk"` // [0,100]
	Volatility      float64         `json:"volatility"` // annualized fraction
	Exposures       []ExposureEntry `json:"exposures"`
	Recommendations []string        `json:"recommendations"`
	MarketSentiment Sentiment       `json:"market_sentiment"`
	ProofHandle     string          `json:"proof_handle,omitempty"`
}

// NormalizeSymbol uppercases a symbol and strips wrapped/dev prefixes so
// that WBTC and BTC, or DEVUSDC and USDC, deduplicate to the same asset.
// Pricing lookups always use the raw listed symbol, never this form.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasPrefix(s, "DEV") && len(s) > 3 {
		return strings.TrimPrefix(s, "DEV")
	}
	if strings.HasPrefix(s, "W") && len(s) > 1 {
		return strings.TrimPrefix(s, "W")
	}
	return s
}
