package intent

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/dex"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/quote"
)

// buildPlan resolves pair existence, computes the quote, and determines the
// approval steps for every non-native leg. Native legs travel as transaction
// value and never appear in an approval step.
func (o *Orchestrator) buildPlan(ctx context.Context, exec ExecContext, it Intent) ([]Step, error) {
	switch it.Kind {
	case KindWrap:
		return o.planWrap(it, true)
	case KindUnwrap:
		return o.planWrap(it, false)
	case KindSwap:
		return o.planSwap(ctx, exec, it)
	case KindAddLiquidity, KindCreatePool:
		return o.planLiquidity(ctx, exec, it)
	case KindRemoveLiquidity:
		return o.planRemoveLiquidity(ctx, exec, it)
	case KindClaimFees:
		return o.planClaimFees(it)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, it.Kind)
	}
}

func (o *Orchestrator) planWrap(it Intent, deposit bool) ([]Step, error) {
	if _, err := quote.WrapOut(it.AmountA); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}

	if deposit {
		data, err := dex.PackWrapDeposit()
		if err != nil {
			return nil, err
		}
		return []Step{{Kind: StepPrimary, Target: o.cfg.Wrapped, Data: data, Value: it.AmountA}}, nil
	}

	data, err := dex.PackWrapWithdraw(it.AmountA)
	if err != nil {
		return nil, err
	}
	return []Step{{Kind: StepPrimary, Target: o.cfg.Wrapped, Data: data}}, nil
}

func (o *Orchestrator) planSwap(ctx context.Context, exec ExecContext, it Intent) ([]Step, error) {
	pair, err := o.reader.PairState(ctx, it.TokenA.Asset, it.TokenB.Asset)
	if err != nil {
		return nil, err
	}

	tokenIn := it.TokenA.Asset.Resolve(o.cfg.Wrapped)
	tokenOut := it.TokenB.Asset.Resolve(o.cfg.Wrapped)

	q, err := quote.SwapOut(pair, tokenIn, it.AmountA, quote.Options{SlippageBps: o.slippage(it)})
	if err != nil {
		return nil, err
	}

	deadline := big.NewInt(o.now().Unix() + o.cfg.DeadlineSeconds)

	var steps []Step
	if step, needed, err := o.approvalStep(ctx, exec, it.TokenA.Asset, it.AmountA); err != nil {
		return nil, err
	} else if needed {
		steps = append(steps, step)
	}

	var data []byte
	var value *big.Int
	switch {
	case it.TokenA.Asset.IsNative():
		data, err = dex.PackSwapExactNativeForTokens(q.MinOut, tokenOut, exec.Account, deadline)
		value = it.AmountA
	case it.TokenB.Asset.IsNative():
		data, err = dex.PackSwapExactTokensForNative(it.AmountA, q.MinOut, tokenIn, exec.Account, deadline)
	default:
		data, err = dex.PackSwapExactTokensForTokens(it.AmountA, q.MinOut, tokenIn, tokenOut, exec.Account, deadline)
	}
	if err != nil {
		return nil, err
	}

	return append(steps, Step{Kind: StepPrimary, Target: o.cfg.Router, Data: data, Value: value}), nil
}

func (o *Orchestrator) planLiquidity(ctx context.Context, exec ExecContext, it Intent) ([]Step, error) {
	if it.AmountA == nil || it.AmountA.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit amount is required", ErrInvalidIntent)
	}
	if it.TokenA.Asset.IsNative() && it.TokenB.Asset.IsNative() {
		return nil, fmt.Errorf("%w: both legs are native", ErrInvalidIntent)
	}

	pair, err := o.reader.PairState(ctx, it.TokenA.Asset, it.TokenB.Asset)
	if err != nil {
		return nil, err
	}

	aAddr := it.TokenA.Asset.Resolve(o.cfg.Wrapped)
	bAddr := it.TokenB.Asset.Resolve(o.cfg.Wrapped)

	if it.AmountB == nil || it.AmountB.Sign() <= 0 {
		// An existing pool fixes the deposit ratio, so the second amount can
		// be derived. A first deposit sets the price and needs both amounts.
		if !pair.Exists() {
			return nil, fmt.Errorf("%w: both deposit amounts are required for a new pool", ErrInvalidIntent)
		}
		derived, err := quote.LiquidityPair(pair, aAddr, it.AmountA)
		if err != nil {
			return nil, err
		}
		it.AmountB = derived
	}

	var steps []Step
	if !pair.Exists() {
		data, err := dex.PackCreatePair(aAddr, bAddr)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{
			Kind:   StepCreatePair,
			Target: o.cfg.Factory,
			Data:   data,
			Note:   "Creating new pair contract...",
		})
	}

	if it.TokenA.Asset.IsNative() || it.TokenB.Asset.IsNative() {
		// Exactly one side resolves to the wrapped contract for calls; the
		// native side rides along as transaction value.
		tokenLeg, tokenAmt, nativeAmt := it.TokenB.Asset, it.AmountB, it.AmountA
		if it.TokenB.Asset.IsNative() {
			tokenLeg, tokenAmt, nativeAmt = it.TokenA.Asset, it.AmountA, it.AmountB
		}
		tokenAddr, _ := tokenLeg.Address()

		if step, needed, err := o.approvalStep(ctx, exec, tokenLeg, tokenAmt); err != nil {
			return nil, err
		} else if needed {
			steps = append(steps, step)
		}

		data, err := dex.PackAddLiquidityNative(tokenAddr, tokenAmt, exec.Account)
		if err != nil {
			return nil, err
		}
		return append(steps, Step{Kind: StepPrimary, Target: o.cfg.Router, Data: data, Value: nativeAmt}), nil
	}

	for _, leg := range []struct {
		asset  model.Asset
		amount *big.Int
	}{
		{it.TokenA.Asset, it.AmountA},
		{it.TokenB.Asset, it.AmountB},
	} {
		if step, needed, err := o.approvalStep(ctx, exec, leg.asset, leg.amount); err != nil {
			return nil, err
		} else if needed {
			steps = append(steps, step)
		}
	}

	data, err := dex.PackAddLiquidity(aAddr, bAddr, it.AmountA, it.AmountB, exec.Account)
	if err != nil {
		return nil, err
	}
	return append(steps, Step{Kind: StepPrimary, Target: o.cfg.Router, Data: data}), nil
}

func (o *Orchestrator) planRemoveLiquidity(ctx context.Context, exec ExecContext, it Intent) ([]Step, error) {
	if it.Liquidity == nil || it.Liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: liquidity amount is required", ErrInvalidIntent)
	}
	if it.Pair == (common.Address{}) {
		return nil, fmt.Errorf("%w: pair address is required", ErrInvalidIntent)
	}

	// The pair contract is itself the LP token.
	var steps []Step
	if step, needed, err := o.approvalStep(ctx, exec, model.Token(it.Pair), it.Liquidity); err != nil {
		return nil, err
	} else if needed {
		steps = append(steps, step)
	}

	aAddr := it.TokenA.Asset.Resolve(o.cfg.Wrapped)
	bAddr := it.TokenB.Asset.Resolve(o.cfg.Wrapped)
	data, err := dex.PackRemoveLiquidity(aAddr, bAddr, it.Liquidity, exec.Account)
	if err != nil {
		return nil, err
	}
	return append(steps, Step{Kind: StepPrimary, Target: o.cfg.Router, Data: data}), nil
}

func (o *Orchestrator) planClaimFees(it Intent) ([]Step, error) {
	if it.Pair == (common.Address{}) {
		return nil, fmt.Errorf("%w: pair address is required", ErrInvalidIntent)
	}
	data, err := dex.PackClaimFees()
	if err != nil {
		return nil, err
	}
	return []Step{{Kind: StepPrimary, Target: it.Pair, Data: data}}, nil
}

// approvalStep checks the allowance for one leg and, when insufficient,
// produces the exact-amount approval step. Allowances are re-checked per
// intent; unrelated activity may have consumed a prior approval.
func (o *Orchestrator) approvalStep(ctx context.Context, exec ExecContext, asset model.Asset, amount *big.Int) (Step, bool, error) {
	needed, err := o.reader.NeedsApproval(ctx, asset, exec.Account, o.cfg.Router, amount)
	if err != nil {
		return Step{}, false, err
	}
	if !needed {
		return Step{}, false, nil
	}

	token, _ := asset.Address()
	data, err := dex.PackApprove(o.cfg.Router, amount)
	if err != nil {
		return Step{}, false, err
	}
	return Step{Kind: StepApprove, Target: token, Data: data}, true, nil
}

func (o *Orchestrator) slippage(it Intent) uint32 {
	if it.SlippageBps != 0 {
		return it.SlippageBps
	}
	return o.cfg.SlippageBps
}
