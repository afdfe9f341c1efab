package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Calldata builders for every write the engine issues. Each returns the ABI
// encoding of one contract method call.

func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return pack(ERC20ABI, "approve", spender, amount)
}

func PackCreatePair(tokenA, tokenB common.Address) ([]byte, error) {
	return pack(FactoryABI, "createPair", tokenA, tokenB)
}

func PackAddLiquidity(tokenA, tokenB common.Address, amountA, amountB *big.Int, to common.Address) ([]byte, error) {
	return pack(RouterABI, "addLiquidity", tokenA, tokenB, amountA, amountB, to)
}

// PackAddLiquidityNative encodes the token leg; the native leg travels as the
// transaction value.
func PackAddLiquidityNative(token common.Address, amountToken *big.Int, to common.Address) ([]byte, error) {
	return pack(RouterABI, "addLiquidityMOCA", token, amountToken, to)
}

func PackRemoveLiquidity(tokenA, tokenB common.Address, liquidity *big.Int, to common.Address) ([]byte, error) {
	return pack(RouterABI, "removeLiquidity", tokenA, tokenB, liquidity, to)
}

func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, tokenIn, tokenOut, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, "swapExactTokensForTokens", amountIn, amountOutMin, tokenIn, tokenOut, to, deadline)
}

func PackSwapExactNativeForTokens(amountOutMin *big.Int, tokenOut, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, "swapExactMOCAForTokens", amountOutMin, tokenOut, to, deadline)
}

func PackSwapExactTokensForNative(amountIn, amountOutMin *big.Int, tokenIn, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, "swapExactTokensForMOCA", amountIn, amountOutMin, tokenIn, to, deadline)
}

func PackWrapDeposit() ([]byte, error) {
	return pack(WrappedABI, "deposit")
}

func PackWrapWithdraw(amount *big.Int) ([]byte, error) {
	return pack(WrappedABI, "withdraw", amount)
}

func PackClaimFees() ([]byte, error) {
	return pack(PairABI, "claimFees")
}

func pack(load func() (abi.ABI, error), method string, args ...interface{}) ([]byte, error) {
	parsed, err := load()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}
