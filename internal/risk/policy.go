// Package risk implements the analytics pipeline that turns a portfolio
// snapshot into a bounded risk score with recommendations: exposure
// calculation, volatility estimation, sentiment aggregation and scoring.
package risk

import "strings"

// Policy is the fixed asset-classification and threshold table driving
// exposure multipliers, volatility fallbacks and recommendation bands.
// Constructed once at startup and never mutated.
type Policy struct {
	// Multipliers per asset class applied to exposure percent.
	StablecoinMultiplier float64
	BTCClassMultiplier   float64
	ETHClassMultiplier   float64
	AltcoinMultiplier    float64

	// Classification sets, keyed by uppercased raw symbol.
	Stablecoins map[string]bool
	BTCClass    map[string]bool
	ETHClass    map[string]bool

	// Risk-band thresholds for recommendation messaging.
	HighRiskThreshold     float64
	ModerateRiskThreshold float64

	// Volatility constants.
	VolatilityWarnThreshold float64
	StablecoinVolFallback   float64
	DefaultVolFallback      float64
	ZeroWeightVol           float64
	EstimatorFailureVol     float64

	// Historical window for per-asset volatility.
	LookbackDays int
}

// DefaultPolicy returns the production classification table.
func DefaultPolicy() Policy {
	return Policy{
		StablecoinMultiplier: 0.05,
		BTCClassMultiplier:   1.2,
		ETHClassMultiplier:   1.0,
		AltcoinMultiplier:    1.5,

		Stablecoins: map[string]bool{"USDC": true, "USDT": true, "DAI": true, "DEVUSDC": true},
		BTCClass:    map[string]bool{"BTC": true, "WBTC": true},
		ETHClass:    map[string]bool{"ETH": true, "WETH": true},

		HighRiskThreshold:     70,
		ModerateRiskThreshold: 50,

		VolatilityWarnThreshold: 0.3,
		StablecoinVolFallback:   0.01,
		DefaultVolFallback:      0.35,
		ZeroWeightVol:           0.25,
		EstimatorFailureVol:     0.30,

		LookbackDays: 30,
	}
}

// Multiplier classifies a raw listed symbol case-insensitively and returns
// its risk multiplier. Unclassified symbols are treated as altcoins.
func (p Policy) Multiplier(symbol string) float64 {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case p.Stablecoins[s]:
		return p.StablecoinMultiplier
	case p.BTCClass[s]:
		return p.BTCClassMultiplier
	case p.ETHClass[s]:
		return p.ETHClassMultiplier
	default:
		return p.AltcoinMultiplier
	}
}

// VolFallback is the per-asset market-estimate volatility used when a
// historical series is missing or too short.
func (p Policy) VolFallback(symbol string) float64 {
	if p.Stablecoins[strings.ToUpper(strings.TrimSpace(symbol))] {
		return p.StablecoinVolFallback
	}
	return p.DefaultVolFallback
}
