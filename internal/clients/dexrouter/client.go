// Package dexrouter provides last-resort on-chain pricing for tokens that
// are tracked as liquidity-pool pairs on a constant-product DEX router.
package dexrouter

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// routerABI covers the single router read the oracle needs.
const routerABI = `[{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"}]`

// ContractCaller is the subset of the EVM client the router quote needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Pool describes a token tracked as a liquidity-pool pair against the
// reference asset.
type Pool struct {
	Token    common.Address
	Decimals int
}

// Reference is the asset every pool quote is denominated in. Its own USD
// price is resolved by the caller, not by this client.
type Reference struct {
	Token    common.Address
	Symbol   string
	Decimals int
}

// Client quotes 1 unit of a tracked token into the reference asset via
// the router's getAmountsOut.
type Client struct {
	caller    ContractCaller
	router    common.Address
	reference Reference
	pools     map[string]Pool
	parsed    abi.ABI
	log       zerolog.Logger
}

// NewClient creates a new DEX router quote client. pools is keyed by
// uppercase symbol.
func NewClient(caller ContractCaller, router common.Address, reference Reference, pools map[string]Pool, log zerolog.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("parse router ABI: %w", err)
	}
	return &Client{
		caller:    caller,
		router:    router,
		reference: reference,
		pools:     pools,
		parsed:    parsed,
		log:       log.With().Str("client", "dexrouter").Logger(),
	}, nil
}

// Tracked reports whether a symbol has a liquidity-pool mapping.
func (c *Client) Tracked(symbol string) bool {
	_, ok := c.pools[strings.ToUpper(symbol)]
	return ok
}

// PoolQuote returns the amount of the reference asset received for 1 unit
// of the given token, plus the reference symbol the caller must price
// separately.
func (c *Client) PoolQuote(ctx context.Context, symbol string) (float64, string, error) {
	key := strings.ToUpper(symbol)
	pool, ok := c.pools[key]
	if !ok {
		return 0, "", fmt.Errorf("%s is not tracked as a pool token", key)
	}

	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(pool.Decimals)), nil)
	path := []common.Address{pool.Token, c.reference.Token}

	data, err := c.parsed.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return 0, "", fmt.Errorf("pack getAmountsOut: %w", err)
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.router, Data: data}, nil)
	if err != nil {
		return 0, "", fmt.Errorf("router call for %s: %w", key, err)
	}

	unpacked, err := c.parsed.Unpack("getAmountsOut", result)
	if err != nil {
		return 0, "", fmt.Errorf("unpack getAmountsOut for %s: %w", key, err)
	}

	amounts, ok := unpacked[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		return 0, "", fmt.Errorf("unexpected getAmountsOut result for %s", key)
	}

	out := amountToFloat(amounts[len(amounts)-1], c.reference.Decimals)
	if out <= 0 {
		return 0, "", fmt.Errorf("empty pool quote for %s", key)
	}

	c.log.Debug().
		Str("symbol", key).
		Float64("reference_out", out).
		Str("reference", c.reference.Symbol).
		Msg("Pool quote")

	return out, c.reference.Symbol, nil
}

func amountToFloat(amount *big.Int, decimals int) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).SetInt(amount)
	out, _ := new(big.Float).Quo(value, scale).Float64()
	return out
}
