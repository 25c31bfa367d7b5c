package risk

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// PredictionSource returns prediction-market records for an asset.
type PredictionSource interface {
	AssetInsights(ctx context.Context, symbol string) ([]domain.Prediction, error)
}

// sentimentAssets are the majors whose prediction markets drive the
// portfolio-wide sentiment signal.
var sentimentAssets = []string{"BTC", "ETH"}

// SentimentAggregator turns probabilistic market-event predictions into a
// discrete bullish/bearish/neutral signal.
type SentimentAggregator struct {
	predictions PredictionSource
	log         zerolog.Logger
}

// NewSentimentAggregator creates a sentiment aggregator.
func NewSentimentAggregator(predictions PredictionSource, log zerolog.Logger) *SentimentAggregator {
	return &SentimentAggregator{
		predictions: predictions,
		log:         log.With().Str("component", "sentiment_aggregator").Logger(),
	}
}

// AssessSentiment classifies each prediction and tallies with a margin-of-2
// hysteresis so near-tied signals stay neutral.
//
// Probability above 60 counts as bearish when the event is recommended for
// hedging or carries HIGH impact, bullish otherwise. Probability below 40
// counts as bearish. The 40 to 60 band is ignored as noise.
func AssessSentiment(predictions []domain.Prediction) domain.Sentiment {
	bullish, bearish := 0, 0
	for _, prediction := range predictions {
		switch {
		case prediction.Probability > 60:
			if prediction.Recommendation == domain.RecommendationHedge || prediction.Impact == domain.ImpactHigh {
				bearish++
			} else {
				bullish++
			}
		case prediction.Probability < 40:
			bearish++
		}
	}

	switch {
	case bullish > bearish+1:
		return domain.SentimentBullish
	case bearish > bullish+1:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

// FetchAndAssess pulls predictions for the major assets and aggregates
// them. Any upstream failure yields neutral: sentiment never blocks the
// rest of the analysis.
func (a *SentimentAggregator) FetchAndAssess(ctx context.Context) domain.Sentiment {
	var all []domain.Prediction
	for _, asset := range sentimentAssets {
		predictions, err := a.predictions.AssetInsights(ctx, asset)
		if err != nil {
			a.log.Warn().Err(err).Str("asset", asset).Msg("Prediction fetch failed, defaulting to neutral sentiment")
			return domain.SentimentNeutral
		}
		all = append(all, predictions...)
	}

	sentiment := AssessSentiment(all)
	a.log.Debug().
		Int("predictions", len(all)).
		Str("sentiment", string(sentiment)).
		Msg("Assessed market sentiment")
	return sentiment
}
