// Package portfolio builds priced point-in-time snapshots of an address's
// on-chain holdings.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/chain"
	"github.com/aristath/riskcore/internal/domain"
)

// BalanceSource reads raw on-chain balances for an address.
type BalanceSource interface {
	Balances(ctx context.Context, address string) ([]chain.Balance, error)
}

// PriceSource resolves a current USD price for a symbol.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error)
}

// Builder assembles portfolio snapshots from on-chain balances and oracle
// prices.
type Builder struct {
	balances BalanceSource
	prices   PriceSource
	log      zerolog.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(balances BalanceSource, prices PriceSource, log zerolog.Logger) *Builder {
	return &Builder{
		balances: balances,
		prices:   prices,
		log:      log.With().Str("service", "snapshot_builder").Logger(),
	}
}

// BuildSnapshot reads the address's tracked balances and prices each one.
// A holding whose price cannot be resolved at all is excluded rather than
// recorded with a garbage value, so TotalValue always equals the sum of
// the holdings it actually contains. Zero tracked balances is a valid
// all-cash state, not an error; only a failed balance read yields
// ErrNoPortfolioData.
func (b *Builder) BuildSnapshot(ctx context.Context, address string) (domain.PortfolioSnapshot, error) {
	balances, err := b.balances.Balances(ctx, address)
	if err != nil {
		b.log.Error().Err(err).Str("address", address).Msg("On-chain balance read failed")
		return domain.PortfolioSnapshot{}, fmt.Errorf("%s: %w", address, domain.ErrNoPortfolioData)
	}

	holdings := make([]domain.TokenHolding, 0, len(balances))
	totalValue := 0.0

	for _, balance := range balances {
		quote, err := b.prices.GetPrice(ctx, balance.Symbol)
		if err != nil {
			b.log.Warn().Err(err).
				Str("symbol", balance.Symbol).
				Float64("balance", balance.Amount).
				Msg("Price unavailable, excluding holding from snapshot")
			continue
		}

		usdValue := balance.Amount * quote.Price
		holdings = append(holdings, domain.TokenHolding{
			Symbol:     balance.Symbol,
			Normalized: domain.NormalizeSymbol(balance.Symbol),
			Balance:    balance.Amount,
			USDValue:   usdValue,
		})
		totalValue += usdValue
	}

	b.log.Debug().
		Str("address", address).
		Int("holdings", len(holdings)).
		Float64("total_value", totalValue).
		Msg("Snapshot built")

	return domain.PortfolioSnapshot{
		Address:     address,
		TotalValue:  totalValue,
		Holdings:    holdings,
		LastUpdated: time.Now().UnixMilli(),
	}, nil
}
