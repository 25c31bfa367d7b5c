// Package jobs holds the scheduled background jobs.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// BatchPriceSource resolves several symbols at once, skipping failures.
type BatchPriceSource interface {
	GetPrices(ctx context.Context, symbols []string) map[string]domain.PriceQuote
}

// PriceWarmJob keeps the shared quote cache warm for the tracked symbols
// so interactive requests rarely pay for a cold upstream fetch.
type PriceWarmJob struct {
	prices  BatchPriceSource
	symbols []string
	timeout time.Duration
	log     zerolog.Logger
}

// NewPriceWarmJob creates the cache warm job.
func NewPriceWarmJob(prices BatchPriceSource, symbols []string, timeout time.Duration, log zerolog.Logger) *PriceWarmJob {
	return &PriceWarmJob{
		prices:  prices,
		symbols: symbols,
		timeout: timeout,
		log:     log.With().Str("job", "price_warm").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *PriceWarmJob) Name() string {
	return "price_warm"
}

// Run fetches every tracked symbol once. Individual symbol failures are
// already skipped by the batch fetch; the job itself never fails.
func (j *PriceWarmJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	quotes := j.prices.GetPrices(ctx, j.symbols)
	j.log.Debug().
		Int("requested", len(j.symbols)).
		Int("resolved", len(quotes)).
		Msg("Warmed price cache")
	return nil
}
