// Package agent exposes the risk pipeline as a typed task surface and
// orchestrates the full analyze-prove-persist flow.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// TaskKind identifies one supported agent operation. The set is closed;
// unknown kinds are reported as unhandled rather than guessed at.
type TaskKind string

const (
	TaskAnalyzeRisk         TaskKind = "analyze_risk"
	TaskCalculateVolatility TaskKind = "calculate_volatility"
	TaskAnalyzeExposures    TaskKind = "analyze_exposures"
	TaskAssessSentiment     TaskKind = "assess_sentiment"
)

// Task is one unit of work dispatched to the agent.
type Task struct {
	Kind        TaskKind `json:"kind"`
	PortfolioID int64    `json:"portfolio_id,omitempty"`
	Address     string   `json:"address,omitempty"`
	Symbol      string   `json:"symbol,omitempty"`
}

// TaskResult is the uniform envelope returned for every task. Handled is
// false only for task kinds the agent does not know.
type TaskResult struct {
	Handled       bool          `json:"handled"`
	Success       bool          `json:"success"`
	Data          any           `json:"data,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	AgentID       string        `json:"agent_id"`
}

// SnapshotBuilder builds priced snapshots for an address.
type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context, address string) (domain.PortfolioSnapshot, error)
}

// RiskScorer computes the full analysis for a snapshot.
type RiskScorer interface {
	ComputeRiskAnalysis(ctx context.Context, portfolioID int64, snapshot domain.PortfolioSnapshot) domain.RiskAnalysis
}

// ExposureSource computes exposures for a snapshot.
type ExposureSource interface {
	ComputeExposures(snapshot domain.PortfolioSnapshot) []domain.ExposureEntry
}

// VolatilitySource computes per-asset annualized volatility.
type VolatilitySource interface {
	EstimateAssetVolatility(ctx context.Context, symbol string) float64
}

// SentimentSource assesses market sentiment from prediction markets.
type SentimentSource interface {
	FetchAndAssess(ctx context.Context) domain.Sentiment
}

// ProofSource attaches a proof handle to a completed analysis. It never
// fails; the prover client substitutes a deterministic fallback.
type ProofSource interface {
	GenerateHandle(ctx context.Context, analysis domain.RiskAnalysis) string
}

// HistoryStore persists completed analyses. May be nil to disable
// persistence.
type HistoryStore interface {
	Save(address string, analysis domain.RiskAnalysis) (string, error)
}

// Agent wires the pipeline components behind the task surface.
type Agent struct {
	id         string
	snapshots  SnapshotBuilder
	scorer     RiskScorer
	exposures  ExposureSource
	volatility VolatilitySource
	sentiment  SentimentSource
	prover     ProofSource
	history    HistoryStore
	log        zerolog.Logger
}

// New creates a risk agent with a fresh agent ID.
func New(snapshots SnapshotBuilder, scorer RiskScorer, exposures ExposureSource, volatility VolatilitySource, sentiment SentimentSource, prover ProofSource, history HistoryStore, log zerolog.Logger) *Agent {
	id := "risk-agent-" + uuid.New().String()[:8]
	return &Agent{
		id:         id,
		snapshots:  snapshots,
		scorer:     scorer,
		exposures:  exposures,
		volatility: volatility,
		sentiment:  sentiment,
		prover:     prover,
		history:    history,
		log:        log.With().Str("component", "risk_agent").Str("agent_id", id).Logger(),
	}
}

// ID returns the agent's instance identifier.
func (a *Agent) ID() string {
	return a.id
}

// Execute dispatches a task to the matching operation. Unknown kinds are
// logged and returned with Handled=false so callers can distinguish "not
// supported" from "failed".
func (a *Agent) Execute(ctx context.Context, task Task) TaskResult {
	started := time.Now()

	var (
		data any
		err  error
	)
	switch task.Kind {
	case TaskAnalyzeRisk:
		data, err = a.AnalyzeRisk(ctx, task.PortfolioID, task.Address)
	case TaskCalculateVolatility:
		data = a.volatility.EstimateAssetVolatility(ctx, task.Symbol)
	case TaskAnalyzeExposures:
		data, err = a.AnalyzeExposures(ctx, task.Address)
	case TaskAssessSentiment:
		data = a.sentiment.FetchAndAssess(ctx)
	default:
		a.log.Warn().Str("kind", string(task.Kind)).Msg("Unknown task kind")
		return TaskResult{
			Handled:       false,
			ExecutionTime: time.Since(started),
			AgentID:       a.id,
		}
	}

	result := TaskResult{
		Handled:       true,
		Success:       err == nil,
		Data:          data,
		ExecutionTime: time.Since(started),
		AgentID:       a.id,
	}
	if err != nil {
		result.Error = err.Error()
		result.Data = nil
	}
	return result
}

// AnalyzeRisk runs the full pipeline for an address: snapshot, analysis,
// proof attachment, persistence. Only a snapshot failure (no portfolio
// data at all) is returned as an error; proof and persistence failures
// degrade without blocking the analysis.
func (a *Agent) AnalyzeRisk(ctx context.Context, portfolioID int64, address string) (domain.RiskAnalysis, error) {
	snapshot, err := a.snapshots.BuildSnapshot(ctx, address)
	if err != nil {
		return domain.RiskAnalysis{}, err
	}

	analysis := a.scorer.ComputeRiskAnalysis(ctx, portfolioID, snapshot)
	analysis.ProofHandle = a.prover.GenerateHandle(ctx, analysis)

	if a.history != nil {
		if _, err := a.history.Save(address, analysis); err != nil {
			a.log.Warn().Err(err).Msg("Persisting analysis failed")
		}
	}

	return analysis, nil
}

// AnalyzeExposures builds a snapshot and computes its exposures.
func (a *Agent) AnalyzeExposures(ctx context.Context, address string) ([]domain.ExposureEntry, error) {
	snapshot, err := a.snapshots.BuildSnapshot(ctx, address)
	if err != nil {
		return nil, err
	}
	return a.exposures.ComputeExposures(snapshot), nil
}
