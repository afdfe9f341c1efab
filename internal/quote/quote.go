// Package quote computes expected and minimum-acceptable output amounts from
// pool reserve snapshots. All arithmetic is integer with floor division so a
// locally computed minimum never exceeds what the chain will accept; the
// chain remains the source of truth.
package quote

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
)

const (
	// DefaultFeeBps is the protocol swap fee (0.3%, the 997/1000 multiplier).
	DefaultFeeBps uint32 = 30

	bpsScale = 10000
)

// Options parameterize a swap quote.
type Options struct {
	// FeeBpsOverride replaces the pair's advertised fee when non-zero.
	FeeBpsOverride uint32

	// SlippageBps is the user's slippage tolerance in basis points
	// (0.5% -> 50).
	SlippageBps uint32
}

// Quote is a transient result, recomputed whenever any input changes.
type Quote struct {
	AmountOut *big.Int `json:"amount_out"`
	MinOut    *big.Int `json:"min_out"`
}

// SwapOut applies the constant-product formula with the fee deducted from the
// input leg:
//
//	out = in*fee' * reserveOut / (reserveIn*10000 + in*fee')   where fee' = 10000 - feeBps
//
// and derives MinOut under the slippage tolerance. Missing pair, empty input
// reserve, or non-positive input yield a "no quote" error, never a division
// by zero.
func SwapOut(pair model.PairState, tokenIn common.Address, amountIn *big.Int, opts Options) (Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{}, ErrInvalidAmount
	}
	if !pair.Exists() {
		return Quote{}, ErrNoLiquidity
	}

	reserveIn, reserveOut, ok := pair.ReservesFor(tokenIn)
	if !ok {
		return Quote{}, ErrTokenNotInPair
	}
	if reserveIn == nil || reserveIn.Sign() == 0 || reserveOut == nil || reserveOut.Sign() == 0 {
		return Quote{}, ErrNoLiquidity
	}

	feeBps := pair.FeeBps
	if opts.FeeBpsOverride != 0 {
		feeBps = opts.FeeBpsOverride
	}
	if feeBps == 0 {
		feeBps = DefaultFeeBps
	}
	if feeBps >= bpsScale || opts.SlippageBps >= bpsScale {
		return Quote{}, ErrInvalidBps
	}

	feeMul := big.NewInt(int64(bpsScale - feeBps))
	scale := big.NewInt(bpsScale)

	inWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, scale)
	denominator.Add(denominator, inWithFee)

	amountOut := numerator.Div(numerator, denominator)
	return Quote{
		AmountOut: amountOut,
		MinOut:    applySlippage(amountOut, opts.SlippageBps),
	}, nil
}

// WrapOut quotes a wrap or unwrap: value moves 1:1 between the native and
// wrapped representations of the same asset, with no fee and no slippage.
func WrapOut(amountIn *big.Int) (Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{}, ErrInvalidAmount
	}
	out := new(big.Int).Set(amountIn)
	return Quote{AmountOut: out, MinOut: new(big.Int).Set(out)}, nil
}

// LiquidityPair computes the second deposit amount that preserves the current
// reserve ratio: amountB = amountA * reserveB / reserveA. For a pool that
// does not yet exist there is no ratio to preserve and ErrNoLiquidity is
// returned; the first deposit sets the price freely.
func LiquidityPair(pair model.PairState, tokenA common.Address, amountA *big.Int) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !pair.Exists() {
		return nil, ErrNoLiquidity
	}

	reserveA, reserveB, ok := pair.ReservesFor(tokenA)
	if !ok {
		return nil, ErrTokenNotInPair
	}
	if reserveA == nil || reserveA.Sign() == 0 {
		return nil, ErrNoLiquidity
	}

	amountB := new(big.Int).Mul(amountA, reserveB)
	return amountB.Div(amountB, reserveA), nil
}

func applySlippage(amountOut *big.Int, slippageBps uint32) *big.Int {
	minOut := new(big.Int).Mul(amountOut, big.NewInt(int64(bpsScale-slippageBps)))
	return minOut.Div(minOut, big.NewInt(bpsScale))
}
