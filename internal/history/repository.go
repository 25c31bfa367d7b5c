// Package history persists completed risk analyses and their proof
// handles.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS risk_analyses (
	id            TEXT PRIMARY KEY,
	portfolio_id  INTEGER NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	timestamp_ms  INTEGER NOT NULL,
	total_risk    REAL NOT NULL,
	volatility    REAL NOT NULL,
	sentiment     TEXT NOT NULL,
	exposures     TEXT NOT NULL,
	recommendations TEXT NOT NULL,
	proof_handle  TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_risk_analyses_portfolio
	ON risk_analyses (portfolio_id, timestamp_ms DESC);
`

// Record is one persisted analysis with its assigned ID.
type Record struct {
	ID       string              `json:"id"`
	Address  string              `json:"address"`
	Analysis domain.RiskAnalysis `json:"analysis"`
}

// Repository stores risk analyses in SQLite.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository and applies the schema.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}, nil
}

// Save persists an analysis and returns its assigned ID.
func (r *Repository) Save(address string, analysis domain.RiskAnalysis) (string, error) {
	exposures, err := json.Marshal(analysis.Exposures)
	if err != nil {
		return "", fmt.Errorf("encoding exposures: %w", err)
	}
	recommendations, err := json.Marshal(analysis.Recommendations)
	if err != nil {
		return "", fmt.Errorf("encoding recommendations: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec(`
		INSERT INTO risk_analyses
		(id, portfolio_id, address, timestamp_ms, total_risk, volatility,
		 sentiment, exposures, recommendations, proof_handle, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		analysis.PortfolioID,
		address,
		analysis.Timestamp,
		analysis.TotalRisk,
		analysis.Volatility,
		string(analysis.MarketSentiment),
		string(exposures),
		string(recommendations),
		analysis.ProofHandle,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("saving risk analysis: %w", err)
	}

	r.log.Info().
		Str("id", id).
		Int64("portfolio_id", analysis.PortfolioID).
		Float64("total_risk", analysis.TotalRisk).
		Msg("Risk analysis persisted")

	return id, nil
}

// GetByID returns one stored analysis, or nil when the ID is unknown.
func (r *Repository) GetByID(id string) (*Record, error) {
	row := r.db.QueryRow(`
		SELECT id, portfolio_id, address, timestamp_ms, total_risk, volatility,
		       sentiment, exposures, recommendations, proof_handle
		FROM risk_analyses WHERE id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading risk analysis %s: %w", id, err)
	}
	return record, nil
}

// ListByPortfolio returns the most recent analyses for a portfolio, newest
// first.
func (r *Repository) ListByPortfolio(portfolioID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, portfolio_id, address, timestamp_ms, total_risk, volatility,
		       sentiment, exposures, recommendations, proof_handle
		FROM risk_analyses
		WHERE portfolio_id = ?
		ORDER BY timestamp_ms DESC
		LIMIT ?`, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing risk analyses: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning risk analysis: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record          Record
		sentiment       string
		exposures       string
		recommendations string
	)
	err := row.Scan(
		&record.ID,
		&record.Analysis.PortfolioID,
		&record.Address,
		&record.Analysis.Timestamp,
		&record.Analysis.TotalRisk,
		&record.Analysis.Volatility,
		&sentiment,
		&exposures,
		&recommendations,
		&record.Analysis.ProofHandle,
	)
	if err != nil {
		return nil, err
	}

	record.Analysis.MarketSentiment = domain.Sentiment(sentiment)
	if err := json.Unmarshal([]byte(exposures), &record.Analysis.Exposures); err != nil {
		return nil, fmt.Errorf("decoding exposures: %w", err)
	}
	if err := json.Unmarshal([]byte(recommendations), &record.Analysis.Recommendations); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}
	return &record, nil
}
