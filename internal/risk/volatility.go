package risk

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
	"github.com/aristath/riskcore/pkg/formulas"
)

// HistoricalPriceSource provides daily price series. An empty result means
// insufficient data, never zero volatility.
type HistoricalPriceSource interface {
	GetHistoricalPrices(ctx context.Context, symbol string, days int) []domain.HistoricalPricePoint
}

// VolatilityEstimator computes annualized volatility per asset and
// exposure-weighted across a portfolio.
type VolatilityEstimator struct {
	history HistoricalPriceSource
	policy  Policy
	log     zerolog.Logger
}

// NewVolatilityEstimator creates a volatility estimator.
func NewVolatilityEstimator(history HistoricalPriceSource, policy Policy, log zerolog.Logger) *VolatilityEstimator {
	return &VolatilityEstimator{
		history: history,
		policy:  policy,
		log:     log.With().Str("component", "volatility_estimator").Logger(),
	}
}

// EstimateAssetVolatility computes annualized volatility from the asset's
// daily price series over the policy lookback. With fewer than two points
// it substitutes the per-asset market estimate: 0.01 for stablecoin-class
// symbols, 0.35 otherwise.
func (e *VolatilityEstimator) EstimateAssetVolatility(ctx context.Context, symbol string) float64 {
	points := e.history.GetHistoricalPrices(ctx, symbol, e.policy.LookbackDays)
	if len(points) < 2 {
		fallback := e.policy.VolFallback(symbol)
		e.log.Warn().
			Str("symbol", symbol).
			Int("points", len(points)).
			Float64("fallback", fallback).
			Msg("Insufficient historical data, using market estimate")
		return fallback
	}

	prices := make([]float64, len(points))
	for i, point := range points {
		prices[i] = point.Price
	}

	returns := formulas.CalculateReturns(prices)
	if len(returns) == 0 {
		return e.policy.VolFallback(symbol)
	}

	return formulas.AnnualizedVolatility(returns)
}

// EstimatePortfolioVolatility is the exposure-weighted average of per-asset
// volatilities. The CASH sentinel and any zero total weight yield the
// zero-weight default of 0.25. An unexpected panic anywhere in the
// computation yields 0.30 instead of propagating: risk reporting is never
// blocked on a volatility bug.
func (e *VolatilityEstimator) EstimatePortfolioVolatility(ctx context.Context, exposures []domain.ExposureEntry) (volatility float64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Volatility estimation panicked, using system default")
			volatility = e.policy.EstimatorFailureVol
		}
	}()

	if domain.IsCashSentinel(exposures) {
		return e.policy.ZeroWeightVol
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for _, exposure := range exposures {
		if exposure.Asset == domain.CashAsset {
			continue
		}
		weight := exposure.Exposure / 100
		weightedSum += e.EstimateAssetVolatility(ctx, exposure.Asset) * weight
		totalWeight += weight
	}

	if totalWeight <= 0 {
		return e.policy.ZeroWeightVol
	}
	return weightedSum / totalWeight
}
