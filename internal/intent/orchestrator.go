package intent

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/chain"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/notify"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/quote"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/wallet"
)

// Reader is the pre-flight data surface the orchestrator needs.
type Reader interface {
	PairState(ctx context.Context, tokenA, tokenB model.Asset) (model.PairState, error)
	NeedsApproval(ctx context.Context, asset model.Asset, owner, spender common.Address, amount *big.Int) (bool, error)
}

// Submitter broadcasts a prepared call and waits for its receipt.
type Submitter interface {
	Submit(ctx context.Context, signer wallet.Signer, call chain.Call) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config holds the contract addresses and trade defaults.
type Config struct {
	Router          common.Address
	Factory         common.Address
	Wrapped         common.Address
	SlippageBps     uint32
	DeadlineSeconds int64
}

// Orchestrator executes one intent at a time: plan, approvals, primary call,
// each step confirmed on-chain before the next is issued. Outcomes reach the
// user only through the notification stream.
type Orchestrator struct {
	reader    Reader
	submitter Submitter
	notes     *notify.Stream
	journal   journal.Journal
	cfg       Config
	logger    *zap.Logger

	busy  atomic.Bool
	state atomic.Int32
	now   func() time.Time
}

func NewOrchestrator(reader Reader, submitter Submitter, notes *notify.Stream, jrnl journal.Journal, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeadlineSeconds <= 0 {
		cfg.DeadlineSeconds = 600
	}
	return &Orchestrator{
		reader:    reader,
		submitter: submitter,
		notes:     notes,
		journal:   jrnl,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// State returns the lifecycle position of the current (or last) intent.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Execute runs the intent to a terminal state. Only one intent may be in
// flight at a time; a concurrent call returns ErrBusy without side effects.
func (o *Orchestrator) Execute(ctx context.Context, exec ExecContext, it Intent) error {
	if !exec.Connected() {
		o.notes.Push(notify.KindInfo, "Connect wallet to continue.")
		return ErrWalletNotConnected
	}

	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.busy.Store(false)

	o.state.Store(int32(StateBuildingPlan))

	plan, err := o.buildPlan(ctx, exec, it)
	if err != nil {
		return o.fail(ctx, exec, it, nil, 0, err)
	}

	done := 0
	var hashes []string
	for _, step := range plan {
		if step.Kind == StepPrimary {
			o.state.Store(int32(StateAwaitingPrimary))
		} else {
			o.state.Store(int32(StateAwaitingApproval))
		}
		if step.Note != "" {
			o.notes.Push(notify.KindInfo, step.Note)
		}

		hash, err := o.runStep(ctx, exec, step)
		if hash != (common.Hash{}) {
			hashes = append(hashes, hash.Hex())
		}
		if err != nil {
			return o.fail(ctx, exec, it, hashes, done, err)
		}
		done++
	}

	o.state.Store(int32(StateSettled))
	o.notes.Push(notify.KindSuccess, successMessage(it.Kind))
	o.record(ctx, exec, it, journal.Entry{
		Outcome:    "settled",
		TxHashes:   hashes,
		StepsDone:  done,
		StepsTotal: len(plan),
	})
	return nil
}

// runStep submits one call and blocks until its receipt is observed. The
// next step's nonce and allowance preconditions depend on this one landing,
// so there is no overlap between steps.
func (o *Orchestrator) runStep(ctx context.Context, exec ExecContext, step Step) (common.Hash, error) {
	call := chain.Call{To: step.Target, Data: step.Data, Value: step.Value}

	hash, err := o.submitter.Submit(ctx, exec.Signer, call)
	if err != nil {
		if errors.Is(err, wallet.ErrRejected) {
			return common.Hash{}, fmt.Errorf("%w: %v", ErrSignerRejected, err)
		}
		return common.Hash{}, fmt.Errorf("%w: submit %s: %v", ErrChainWrite, step.Kind, err)
	}

	receipt, err := o.submitter.WaitMined(ctx, hash)
	if err != nil {
		return hash, fmt.Errorf("%w: wait %s: %v", ErrChainWrite, step.Kind, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return hash, fmt.Errorf("%w: %s tx %s", ErrExecutionReverted, step.Kind, hash.Hex())
	}
	return hash, nil
}

// fail terminates the intent, emitting exactly one error notification with a
// user-safe message. The root cause goes to the log and the journal, never
// to the user; a fresh intent can always be retried.
func (o *Orchestrator) fail(ctx context.Context, exec ExecContext, it Intent, hashes []string, done int, cause error) error {
	o.state.Store(int32(StateFailed))

	o.logger.Error("intent failed",
		zap.String("kind", string(it.Kind)),
		zap.String("account", exec.Account.Hex()),
		zap.Int("steps_done", done),
		zap.Error(cause),
	)

	o.notes.Push(notify.KindError, failureMessage(cause, done))
	o.record(ctx, exec, it, journal.Entry{
		Outcome:   "failed",
		Cause:     cause.Error(),
		TxHashes:  hashes,
		StepsDone: done,
	})
	return cause
}

func (o *Orchestrator) record(ctx context.Context, exec ExecContext, it Intent, entry journal.Entry) {
	if o.journal == nil {
		return
	}
	entry.IntentKind = string(it.Kind)
	entry.Account = exec.Account.Hex()
	if it.Pair != (common.Address{}) {
		entry.Pair = it.Pair.Hex()
	}
	entry.RecordedAt = o.now()
	if err := o.journal.Record(ctx, entry); err != nil {
		o.logger.Warn("journal write failed", zap.Error(err))
	}
}

func successMessage(kind Kind) string {
	switch kind {
	case KindWrap, KindUnwrap:
		return "Transaction successful"
	case KindSwap:
		return "Swap executed"
	case KindAddLiquidity, KindCreatePool:
		return "Liquidity provisioned successfully!"
	case KindRemoveLiquidity:
		return "Liquidity removed"
	case KindClaimFees:
		return "Fees claimed"
	default:
		return "Transaction successful"
	}
}

func failureMessage(cause error, stepsDone int) string {
	switch {
	case errors.Is(cause, quote.ErrNoLiquidity):
		return "No liquidity for this pair."
	case errors.Is(cause, ErrSignerRejected):
		return "Transaction rejected in wallet."
	case errors.Is(cause, ErrInvalidIntent):
		return "Invalid trade input."
	case stepsDone > 0:
		// Confirmed approvals cannot be rolled back on-chain; say so rather
		// than pretending nothing happened.
		return "Approval confirmed, but the transaction failed. Please check reserves and try again."
	default:
		return "Transaction failed. Please check reserves and try again."
	}
}
