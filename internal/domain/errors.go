package domain

import "errors"

// Error taxonomy for the analytics pipeline. These are matched with
// errors.Is; wrap them with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrPriceUnavailable - no source, including the stale cache, could
	// resolve a price for a symbol. Recovered locally by the volatility
	// and exposure paths; never surfaces past them.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrNoPortfolioData - the snapshot builder could not resolve anything
	// for the address. Distinct from a legitimately empty portfolio, which
	// is a valid zero-holdings snapshot. This is the only pipeline error
	// that propagates to the caller of a full risk analysis.
	ErrNoPortfolioData = errors.New("no portfolio data")

	// ErrUpstreamTimeout - an external call exceeded its bound. Treated
	// identically to source failure by every fallback chain.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrMalformedResponse - a source returned data failing basic shape
	// validation. Treated identically to source failure.
	ErrMalformedResponse = errors.New("malformed upstream response")
)
