// Package intent turns user trade intents into ordered sequences of on-chain
// calls and tracks their multi-step, partially-failable lifecycle.
package intent

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/wallet"
)

// Kind enumerates the user intents the engine executes.
type Kind string

const (
	KindSwap            Kind = "swap"
	KindWrap            Kind = "wrap"
	KindUnwrap          Kind = "unwrap"
	KindAddLiquidity    Kind = "addLiquidity"
	KindCreatePool      Kind = "createPool"
	KindRemoveLiquidity Kind = "removeLiquidity"
	KindClaimFees       Kind = "claimFees"
)

// Intent is a single user action. It is consumed synchronously by the
// orchestrator and never persisted.
//
// For swaps and wraps TokenA is the input side and TokenB the output side;
// for liquidity intents they are the two pool legs. Pair and Liquidity apply
// to remove-liquidity and claim-fees.
type Intent struct {
	Kind        Kind
	TokenA      model.TokenMeta
	TokenB      model.TokenMeta
	AmountA     *big.Int
	AmountB     *big.Int
	Pair        common.Address
	Liquidity   *big.Int
	SlippageBps uint32
}

// ExecContext carries the connected account and its signing capability.
// Passing it explicitly, rather than reading ambient connection state, keeps
// execution deterministic under test.
type ExecContext struct {
	Account common.Address
	Signer  wallet.Signer
}

// Connected reports whether the context can sign.
func (e ExecContext) Connected() bool {
	return e.Signer != nil && e.Account != (common.Address{})
}

// StepKind classifies a plan step.
type StepKind string

const (
	StepApprove    StepKind = "approve"
	StepCreatePair StepKind = "createPair"
	StepPrimary    StepKind = "primary"
)

// Step is one ordered element of an intent's execution plan.
type Step struct {
	Kind   StepKind
	Target common.Address
	Data   []byte
	Value  *big.Int
	Note   string
}

// State is the orchestrator's lifecycle position for the current intent.
type State int32

const (
	StateIdle State = iota
	StateBuildingPlan
	StateAwaitingApproval
	StateAwaitingPrimary
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuildingPlan:
		return "buildingPlan"
	case StateAwaitingApproval:
		return "awaitingApproval"
	case StateAwaitingPrimary:
		return "awaitingPrimary"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
