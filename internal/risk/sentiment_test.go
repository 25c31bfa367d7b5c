package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/riskcore/internal/domain"
)

func bullishPrediction() domain.Prediction {
	return domain.Prediction{Probability: 75, Recommendation: domain.RecommendationNone, Impact: domain.ImpactLow}
}

func bearishPrediction() domain.Prediction {
	return domain.Prediction{Probability: 75, Recommendation: domain.RecommendationHedge, Impact: domain.ImpactLow}
}

func TestAssessSentimentClassification(t *testing.T) {
	tests := []struct {
		name        string
		predictions []domain.Prediction
		want        domain.Sentiment
	}{
		{
			name: "high probability hedge is bearish",
			predictions: []domain.Prediction{
				bearishPrediction(), bearishPrediction(), bearishPrediction(),
			},
			want: domain.SentimentBearish,
		},
		{
			name: "high probability high impact is bearish",
			predictions: []domain.Prediction{
				{Probability: 80, Recommendation: domain.RecommendationMonitor, Impact: domain.ImpactHigh},
				{Probability: 80, Recommendation: domain.RecommendationNone, Impact: domain.ImpactHigh},
				{Probability: 80, Recommendation: domain.RecommendationNone, Impact: domain.ImpactHigh},
			},
			want: domain.SentimentBearish,
		},
		{
			name: "low probability is bearish",
			predictions: []domain.Prediction{
				{Probability: 20, Recommendation: domain.RecommendationNone, Impact: domain.ImpactLow},
				{Probability: 30, Recommendation: domain.RecommendationNone, Impact: domain.ImpactLow},
				{Probability: 10, Recommendation: domain.RecommendationNone, Impact: domain.ImpactLow},
			},
			want: domain.SentimentBearish,
		},
		{
			name: "mid band predictions are ignored",
			predictions: []domain.Prediction{
				{Probability: 45, Recommendation: domain.RecommendationHedge, Impact: domain.ImpactHigh},
				{Probability: 55, Recommendation: domain.RecommendationHedge, Impact: domain.ImpactHigh},
			},
			want: domain.SentimentNeutral,
		},
		{
			name:        "no predictions is neutral",
			predictions: nil,
			want:        domain.SentimentNeutral,
		},
		{
			name: "three bullish one bearish clears hysteresis",
			predictions: []domain.Prediction{
				bullishPrediction(), bullishPrediction(), bullishPrediction(), bearishPrediction(),
			},
			want: domain.SentimentBullish,
		},
		{
			name: "two bullish one bearish stays neutral",
			predictions: []domain.Prediction{
				bullishPrediction(), bullishPrediction(), bearishPrediction(),
			},
			want: domain.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessSentiment(tt.predictions))
		})
	}
}

type stubPredictions struct {
	byAsset map[string][]domain.Prediction
	err     error
}

func (s *stubPredictions) AssetInsights(_ context.Context, symbol string) ([]domain.Prediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byAsset[symbol], nil
}

func TestFetchAndAssessCombinesAssets(t *testing.T) {
	agg := NewSentimentAggregator(&stubPredictions{byAsset: map[string][]domain.Prediction{
		"BTC": {bullishPrediction(), bullishPrediction()},
		"ETH": {bullishPrediction()},
	}}, zerolog.Nop())

	assert.Equal(t, domain.SentimentBullish, agg.FetchAndAssess(context.Background()))
}

func TestFetchAndAssessUpstreamFailureIsNeutral(t *testing.T) {
	agg := NewSentimentAggregator(&stubPredictions{err: errors.New("service unavailable")}, zerolog.Nop())

	assert.Equal(t, domain.SentimentNeutral, agg.FetchAndAssess(context.Background()))
}
