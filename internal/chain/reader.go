// Package chain reads native and ERC20 balances for an address from an EVM
// endpoint. Only a fixed allow-list of token contracts is ever queried.
package chain

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// EVMClient is the subset of the ethclient surface the reader needs.
type EVMClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Token is one allow-listed ERC20 contract.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

// Balance is an on-chain position before pricing.
type Balance struct {
	Symbol string
	Amount float64
}

// Reader fetches the native balance plus the allow-listed token balances
// for an address.
type Reader struct {
	client       EVMClient
	erc20        abi.ABI
	nativeSymbol string
	tokens       []Token
	log          zerolog.Logger
}

// CronosTestnetTokens is the allow-list for the Cronos testnet deployment.
func CronosTestnetTokens() []Token {
	return []Token{
		{Symbol: "DEVUSDC", Address: common.HexToAddress("0xc01efAaF7C5C61bEbFAeb358E1161b537b8bC0e0"), Decimals: 6},
		{Symbol: "WCRO", Address: common.HexToAddress("0x6a3173618859C7cd40fAF6921b5E9eB6A76f1fD4"), Decimals: 18},
	}
}

// NewReader creates a balance reader over the given allow-list. The native
// symbol names the chain's gas asset (CRO on Cronos).
func NewReader(client EVMClient, nativeSymbol string, tokens []Token, log zerolog.Logger) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing ERC20 ABI: %w", err)
	}

	return &Reader{
		client:       client,
		erc20:        parsed,
		nativeSymbol: strings.ToUpper(nativeSymbol),
		tokens:       tokens,
		log:          log.With().Str("component", "chain_reader").Logger(),
	}, nil
}

// Balances reads the native balance and every allow-listed token balance
// for the address. An individual token read failure skips that token; a
// native balance failure fails the whole read because it signals a dead
// RPC endpoint rather than a missing contract.
func (r *Reader) Balances(ctx context.Context, address string) ([]Balance, error) {
	owner := common.HexToAddress(address)

	native, err := r.client.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("reading native balance for %s: %w", address, err)
	}

	balances := make([]Balance, 0, len(r.tokens)+1)
	if amount := fromWei(native, 18); amount > 0 {
		balances = append(balances, Balance{Symbol: r.nativeSymbol, Amount: amount})
	}

	for _, token := range r.tokens {
		amount, err := r.tokenBalance(ctx, owner, token)
		if err != nil {
			r.log.Debug().Err(err).Str("token", token.Symbol).Msg("Token balance read failed, skipping")
			continue
		}
		if amount > 0 {
			balances = append(balances, Balance{Symbol: token.Symbol, Amount: amount})
		}
	}

	return balances, nil
}

func (r *Reader) tokenBalance(ctx context.Context, owner common.Address, token Token) (float64, error) {
	data, err := r.erc20.Pack("balanceOf", owner)
	if err != nil {
		return 0, fmt.Errorf("packing balanceOf: %w", err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token.Address, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("calling %s balanceOf: %w", token.Symbol, err)
	}

	values, err := r.erc20.Unpack("balanceOf", result)
	if err != nil {
		return 0, fmt.Errorf("unpacking %s balanceOf: %w", token.Symbol, err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("unexpected balanceOf output arity %d", len(values))
	}

	raw, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected balanceOf output type %T", values[0])
	}

	return fromWei(raw, token.Decimals), nil
}

// fromWei converts a raw integer amount into a float with the given number
// of decimals. Precision loss past float64 is acceptable for valuation.
func fromWei(raw *big.Int, decimals int) float64 {
	if raw == nil || raw.Sign() == 0 {
		return 0
	}
	scale := new(big.Float).SetFloat64(math.Pow10(decimals))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return value
}
