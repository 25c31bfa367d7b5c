// Package formulas provides the statistical primitives used by the risk
// analytics pipeline: daily returns, population moments and annualized
// volatility.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization basis for crypto assets, which
// trade around the clock every day of the year.
const TradingDaysPerYear = 365

// CalculateReturns converts a chronological price series to simple daily
// returns: Returns[i] = (Price[i+1] - Price[i]) / Price[i].
// Fewer than two prices yield an empty slice.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopVariance calculates the population variance (divide by n, not n-1).
// Risk scoring uses the population moment so that short return windows are
// not inflated by the sample correction.
func PopVariance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := stat.Mean(data, nil)
	return stat.MomentAbout(2, data, mean, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns:
// sqrt(population variance) * sqrt(365).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return math.Sqrt(PopVariance(dailyReturns)) * math.Sqrt(TradingDaysPerYear)
}

// Round rounds a value to the given number of decimal places.
func Round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
