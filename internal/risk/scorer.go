package risk

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// Recommendation text emitted by the rule cascade.
const (
	recCashDiversify  = "Portfolio is 100% cash - consider diversifying into tracked assets"
	recCashFirstTrade = "Start with a small position such as 100 CRO or 50 ETH"
	recCashAllocation = "A balanced allocation could target 40% CRO, 30% ETH, 20% BTC, 10% stablecoins"

	recHighRisk      = "High risk detected: consider reducing overall exposure"
	recHighRiskHedge = "Implement hedging strategies to protect against drawdowns"
	recModerateRisk  = "Moderate risk: monitor positions closely"
	recModerateHedge = "Consider partial hedging for protection"
	recAcceptable    = "Risk levels acceptable within target range"

	recHighVolatility = "High volatility detected: consider volatility-targeting strategies"
	recBearish        = "Bearish sentiment: consider defensive positioning"
	recBullish        = "Bullish sentiment: evaluate growth opportunities"
)

// Scorer combines exposure, volatility and sentiment into a bounded risk
// score with an ordered recommendation list. It always produces a complete
// RiskAnalysis for any snapshot it is given; each input component carries
// its own fallback.
type Scorer struct {
	exposures  *ExposureCalculator
	volatility *VolatilityEstimator
	sentiment  *SentimentAggregator
	policy     Policy
	log        zerolog.Logger
}

// NewScorer creates a risk scorer over the three analytics components.
func NewScorer(exposures *ExposureCalculator, volatility *VolatilityEstimator, sentiment *SentimentAggregator, policy Policy, log zerolog.Logger) *Scorer {
	return &Scorer{
		exposures:  exposures,
		volatility: volatility,
		sentiment:  sentiment,
		policy:     policy,
		log:        log.With().Str("service", "risk_scorer").Logger(),
	}
}

// ComputeRiskAnalysis scores a snapshot. Sentiment is fetched concurrently
// with the exposure and volatility computation since neither depends on
// the other. The total score is volatility on a 0-50 scale plus the sum of
// exposure contributions, clamped to 100.
func (s *Scorer) ComputeRiskAnalysis(ctx context.Context, portfolioID int64, snapshot domain.PortfolioSnapshot) domain.RiskAnalysis {
	sentimentCh := make(chan domain.Sentiment, 1)
	go func() {
		sentimentCh <- s.sentiment.FetchAndAssess(ctx)
	}()

	exposures := s.exposures.ComputeExposures(snapshot)
	volatility := s.volatility.EstimatePortfolioVolatility(ctx, exposures)
	sentiment := <-sentimentCh

	contributionSum := 0.0
	for _, exposure := range exposures {
		contributionSum += exposure.Contribution
	}

	totalRisk := volatility*50 + contributionSum
	if totalRisk > 100 {
		totalRisk = 100
	}

	analysis := domain.RiskAnalysis{
		PortfolioID:     portfolioID,
		Timestamp:       time.Now().UnixMilli(),
		TotalRisk:       totalRisk,
		Volatility:      volatility,
		Exposures:       exposures,
		Recommendations: s.recommend(totalRisk, volatility, sentiment, exposures),
		MarketSentiment: sentiment,
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Float64("total_risk", totalRisk).
		Float64("volatility", volatility).
		Str("sentiment", string(sentiment)).
		Msg("Risk analysis computed")

	return analysis
}

// recommend runs the ordered rule cascade. The cash-only sentinel is
// exclusive and short-circuits every other rule; otherwise the band
// message comes first, then the volatility warning, then the sentiment
// note.
func (s *Scorer) recommend(totalRisk, volatility float64, sentiment domain.Sentiment, exposures []domain.ExposureEntry) []string {
	if domain.IsCashSentinel(exposures) {
		return []string{recCashDiversify, recCashFirstTrade, recCashAllocation}
	}

	var recommendations []string
	switch {
	case totalRisk > s.policy.HighRiskThreshold:
		recommendations = append(recommendations, recHighRisk, recHighRiskHedge)
	case totalRisk > s.policy.ModerateRiskThreshold:
		recommendations = append(recommendations, recModerateRisk, recModerateHedge)
	default:
		recommendations = append(recommendations, recAcceptable)
	}

	if volatility > s.policy.VolatilityWarnThreshold {
		recommendations = append(recommendations, recHighVolatility)
	}

	switch sentiment {
	case domain.SentimentBearish:
		recommendations = append(recommendations, recBearish)
	case domain.SentimentBullish:
		recommendations = append(recommendations, recBullish)
	}

	return recommendations
}
