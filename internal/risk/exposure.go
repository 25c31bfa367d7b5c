package risk

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/riskcore/internal/domain"
)

// ExposureCalculator converts a snapshot into per-asset exposure percent
// and risk-multiplier-weighted contributions.
type ExposureCalculator struct {
	policy Policy
	log    zerolog.Logger
}

// NewExposureCalculator creates an exposure calculator over the policy's
// classification table.
func NewExposureCalculator(policy Policy, log zerolog.Logger) *ExposureCalculator {
	return &ExposureCalculator{
		policy: policy,
		log:    log.With().Str("component", "exposure_calculator").Logger(),
	}
}

// ComputeExposures returns exposures sorted descending by percent, ties
// keeping the snapshot's holding order. An empty or zero-value snapshot
// yields the CASH sentinel. Any unexpected panic yields an empty slice,
// which callers must read as "exposure unknown", never as zero exposure.
func (c *ExposureCalculator) ComputeExposures(snapshot domain.PortfolioSnapshot) (exposures []domain.ExposureEntry) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("Exposure calculation panicked, reporting exposure unknown")
			exposures = []domain.ExposureEntry{}
		}
	}()

	if len(snapshot.Holdings) == 0 || snapshot.TotalValue <= 0 {
		return []domain.ExposureEntry{{
			Asset:        domain.CashAsset,
			Exposure:     100,
			Contribution: 0,
		}}
	}

	exposures = make([]domain.ExposureEntry, 0, len(snapshot.Holdings))
	for _, holding := range snapshot.Holdings {
		percent := holding.USDValue / snapshot.TotalValue * 100
		multiplier := c.policy.Multiplier(holding.Symbol)

		exposures = append(exposures, domain.ExposureEntry{
			Asset:        holding.Symbol,
			Exposure:     round2(percent),
			Contribution: round2(percent * multiplier),
		})
	}

	sort.SliceStable(exposures, func(i, j int) bool {
		return exposures[i].Exposure > exposures[j].Exposure
	})

	return exposures
}

// round2 rounds to 2 decimal places with half-up semantics.
func round2(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}
