package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"btc", "BTC"},
		{"WBTC", "BTC"},
		{"weth", "ETH"},
		{"WCRO", "CRO"},
		{"devUSDC", "USDC"},
		{"DEVUSDC", "USDC"},
		{"USDC", "USDC"},
		{"W", "W"},     // bare W is a symbol, not a prefix
		{"DEV", "DEV"}, // bare DEV likewise
		{" eth ", "ETH"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeSymbol(tt.in), "NormalizeSymbol(%q)", tt.in)
	}
}

func TestIsCashSentinel(t *testing.T) {
	assert.True(t, IsCashSentinel([]ExposureEntry{{Asset: CashAsset, Exposure: 100, Contribution: 0}}))
	assert.False(t, IsCashSentinel(nil))
	assert.False(t, IsCashSentinel([]ExposureEntry{{Asset: "BTC"}}))
	assert.False(t, IsCashSentinel([]ExposureEntry{{Asset: CashAsset}, {Asset: "BTC"}}))
}
