package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcore/internal/domain"
)

type fakePipeline struct {
	snapshot    domain.PortfolioSnapshot
	snapshotErr error
	analysis    domain.RiskAnalysis
	exposures   []domain.ExposureEntry
	volatility  float64
	sentiment   domain.Sentiment
	handle      string
	saved       []domain.RiskAnalysis
	saveErr     error
}

func (f *fakePipeline) BuildSnapshot(_ context.Context, _ string) (domain.PortfolioSnapshot, error) {
	return f.snapshot, f.snapshotErr
}

func (f *fakePipeline) ComputeRiskAnalysis(_ context.Context, portfolioID int64, _ domain.PortfolioSnapshot) domain.RiskAnalysis {
	analysis := f.analysis
	analysis.PortfolioID = portfolioID
	return analysis
}

func (f *fakePipeline) ComputeExposures(_ domain.PortfolioSnapshot) []domain.ExposureEntry {
	return f.exposures
}

func (f *fakePipeline) EstimateAssetVolatility(_ context.Context, _ string) float64 {
	return f.volatility
}

func (f *fakePipeline) FetchAndAssess(_ context.Context) domain.Sentiment {
	return f.sentiment
}

func (f *fakePipeline) GenerateHandle(_ context.Context, _ domain.RiskAnalysis) string {
	return f.handle
}

func (f *fakePipeline) Save(_ string, analysis domain.RiskAnalysis) (string, error) {
	f.saved = append(f.saved, analysis)
	return "record-id", f.saveErr
}

func newTestAgent(f *fakePipeline) *Agent {
	return New(f, f, f, f, f, f, f, zerolog.Nop())
}

func TestExecuteAnalyzeRisk(t *testing.T) {
	f := &fakePipeline{
		analysis:  domain.RiskAnalysis{TotalRisk: 42, MarketSentiment: domain.SentimentNeutral},
		handle:    "0xproof",
		sentiment: domain.SentimentNeutral,
	}
	agent := newTestAgent(f)

	result := agent.Execute(context.Background(), Task{
		Kind:        TaskAnalyzeRisk,
		PortfolioID: 7,
		Address:     "0xabc",
	})

	require.True(t, result.Handled)
	require.True(t, result.Success)
	assert.Equal(t, agent.ID(), result.AgentID)

	analysis, ok := result.Data.(domain.RiskAnalysis)
	require.True(t, ok)
	assert.Equal(t, int64(7), analysis.PortfolioID)
	assert.Equal(t, "0xproof", analysis.ProofHandle, "proof handle is attached before persistence")

	require.Len(t, f.saved, 1)
	assert.Equal(t, "0xproof", f.saved[0].ProofHandle)
}

func TestExecuteAnalyzeRiskNoPortfolioData(t *testing.T) {
	f := &fakePipeline{snapshotErr: domain.ErrNoPortfolioData}
	agent := newTestAgent(f)

	result := agent.Execute(context.Background(), Task{Kind: TaskAnalyzeRisk, Address: "0xdead"})

	assert.True(t, result.Handled)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, domain.ErrNoPortfolioData.Error())
	assert.Nil(t, result.Data)
	assert.Empty(t, f.saved, "failed analyses are never persisted")
}

func TestExecuteAnalyzeRiskPersistFailureDoesNotBlock(t *testing.T) {
	f := &fakePipeline{saveErr: errors.New("disk full"), handle: "0xproof"}
	agent := newTestAgent(f)

	result := agent.Execute(context.Background(), Task{Kind: TaskAnalyzeRisk, PortfolioID: 1})
	assert.True(t, result.Success)
}

func TestExecuteVolatilityAndSentiment(t *testing.T) {
	f := &fakePipeline{volatility: 0.35, sentiment: domain.SentimentBullish}
	agent := newTestAgent(f)

	vol := agent.Execute(context.Background(), Task{Kind: TaskCalculateVolatility, Symbol: "BTC"})
	require.True(t, vol.Success)
	assert.Equal(t, 0.35, vol.Data)

	sentiment := agent.Execute(context.Background(), Task{Kind: TaskAssessSentiment})
	require.True(t, sentiment.Success)
	assert.Equal(t, domain.SentimentBullish, sentiment.Data)
}

func TestExecuteAnalyzeExposures(t *testing.T) {
	f := &fakePipeline{exposures: []domain.ExposureEntry{{Asset: "BTC", Exposure: 100, Contribution: 120}}}
	agent := newTestAgent(f)

	result := agent.Execute(context.Background(), Task{Kind: TaskAnalyzeExposures, Address: "0xabc"})
	require.True(t, result.Success)

	exposures, ok := result.Data.([]domain.ExposureEntry)
	require.True(t, ok)
	assert.Len(t, exposures, 1)
}

func TestExecuteUnknownKindIsUnhandled(t *testing.T) {
	agent := newTestAgent(&fakePipeline{})

	result := agent.Execute(context.Background(), Task{Kind: TaskKind("rebalance_portfolio")})
	assert.False(t, result.Handled)
	assert.False(t, result.Success)
	assert.Equal(t, agent.ID(), result.AgentID)
}
