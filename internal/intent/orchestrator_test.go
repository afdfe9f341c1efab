package intent

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/chain"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/notify"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/quote"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/wallet"
)

var (
	routerAddr  = common.HexToAddress("0xaaa0000000000000000000000000000000000001")
	factoryAddr = common.HexToAddress("0xaaa0000000000000000000000000000000000002")
	wrappedAddr = common.HexToAddress("0xaaa0000000000000000000000000000000000003")
	erc20Addr   = common.HexToAddress("0xbbb0000000000000000000000000000000000001")
	pairAddr    = common.HexToAddress("0xccc0000000000000000000000000000000000001")
	accountAddr = common.HexToAddress("0xddd0000000000000000000000000000000000001")
)

type fakeSigner struct{}

func (fakeSigner) Account() common.Address { return accountAddr }
func (fakeSigner) SignTx(_ context.Context, _ *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	return tx, nil
}

type fakeReader struct {
	pair           model.PairState
	pairErr        error
	allowances     map[common.Address]*big.Int
	approvalChecks []*big.Int
}

func (r *fakeReader) PairState(context.Context, model.Asset, model.Asset) (model.PairState, error) {
	return r.pair, r.pairErr
}

func (r *fakeReader) NeedsApproval(_ context.Context, asset model.Asset, _, _ common.Address, amount *big.Int) (bool, error) {
	if asset.IsNative() {
		return false, nil
	}
	r.approvalChecks = append(r.approvalChecks, new(big.Int).Set(amount))
	token, _ := asset.Address()
	allowance, ok := r.allowances[token]
	if !ok {
		allowance = new(big.Int)
	}
	return allowance.Cmp(amount) < 0, nil
}

// fakeSubmitter records a strict event trace. mineDelay makes confirmation
// waits observable so interleaving would show up in the trace.
type fakeSubmitter struct {
	mu        sync.Mutex
	trace     []string
	calls     []chain.Call
	mineDelay time.Duration
	revertAt  int // step index whose receipt reports failure, -1 for none
	rejectAt  int // step index whose signing is declined, -1 for none
	unmined   int
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{revertAt: -1, rejectAt: -1}
}

func (s *fakeSubmitter) Submit(_ context.Context, _ wallet.Signer, call chain.Call) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.calls)
	if s.unmined > 0 {
		s.trace = append(s.trace, fmt.Sprintf("submit:%d:overlapping", idx))
	}
	if idx == s.rejectAt {
		s.trace = append(s.trace, fmt.Sprintf("reject:%d", idx))
		return common.Hash{}, fmt.Errorf("user declined: %w", wallet.ErrRejected)
	}

	s.calls = append(s.calls, call)
	s.unmined++
	s.trace = append(s.trace, fmt.Sprintf("submit:%d", idx))
	return common.Hash{byte(idx + 1)}, nil
}

func (s *fakeSubmitter) WaitMined(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	time.Sleep(s.mineDelay)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := int(txHash[0]) - 1
	s.unmined--
	s.trace = append(s.trace, fmt.Sprintf("mined:%d", idx))

	status := types.ReceiptStatusSuccessful
	if idx == s.revertAt {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: txHash}, nil
}

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) last(t *testing.T) journal.Entry {
	t.Helper()
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) == 0 {
		t.Fatalf("no journal entries")
	}
	return j.entries[len(j.entries)-1]
}

func newOrchestrator(reader Reader, submitter Submitter, jrnl journal.Journal) (*Orchestrator, *notify.Stream) {
	notes := notify.NewStream(time.Minute)
	cfg := Config{
		Router:          routerAddr,
		Factory:         factoryAddr,
		Wrapped:         wrappedAddr,
		SlippageBps:     50,
		DeadlineSeconds: 600,
	}
	return NewOrchestrator(reader, submitter, notes, jrnl, cfg, nil), notes
}

func existingPair() model.PairState {
	return model.PairState{
		Pair:     pairAddr,
		Token0:   wrappedAddr,
		Token1:   erc20Addr,
		Reserve0: big.NewInt(1_000_000),
		Reserve1: big.NewInt(2_000_000),
		FeeBps:   30,
	}
}

func missingPair() model.PairState {
	return model.PairState{
		Token0:   wrappedAddr,
		Token1:   erc20Addr,
		Reserve0: new(big.Int),
		Reserve1: new(big.Int),
	}
}

func connected() ExecContext {
	return ExecContext{Account: accountAddr, Signer: fakeSigner{}}
}

func nativeMeta() model.TokenMeta {
	return model.TokenMeta{Asset: model.Native(), Symbol: "MOCA", Decimals: 18}
}

func erc20Meta() model.TokenMeta {
	return model.TokenMeta{Asset: model.Token(erc20Addr), Symbol: "IUSDC", Decimals: 18}
}

func TestCreatePoolFreshNativePlan(t *testing.T) {
	reader := &fakeReader{pair: missingPair(), allowances: map[common.Address]*big.Int{}}
	submitter := newFakeSubmitter()
	jrnl := &memJournal{}
	o, _ := newOrchestrator(reader, submitter, jrnl)

	it := Intent{
		Kind:    KindCreatePool,
		TokenA:  nativeMeta(),
		TokenB:  erc20Meta(),
		AmountA: big.NewInt(5_000), // native leg
		AmountB: big.NewInt(10_000),
	}

	if err := o.Execute(context.Background(), connected(), it); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(submitter.calls) != 3 {
		t.Fatalf("expected 3 steps, got %d: %v", len(submitter.calls), submitter.trace)
	}

	// createPair -> approve(erc20) -> addLiquidityMOCA with value.
	if submitter.calls[0].To != factoryAddr {
		t.Fatalf("step 0 target = %s, want factory", submitter.calls[0].To.Hex())
	}
	if submitter.calls[1].To != erc20Addr {
		t.Fatalf("step 1 target = %s, want erc20 token", submitter.calls[1].To.Hex())
	}
	if submitter.calls[2].To != routerAddr {
		t.Fatalf("step 2 target = %s, want router", submitter.calls[2].To.Hex())
	}
	if submitter.calls[2].Value == nil || submitter.calls[2].Value.Cmp(it.AmountA) != 0 {
		t.Fatalf("native leg must ride as value, got %v", submitter.calls[2].Value)
	}

	// The native leg never appears as an approval target.
	for i, call := range submitter.calls[:2] {
		if call.To == wrappedAddr {
			t.Fatalf("step %d targets the wrapped contract; native leg must not be approved", i)
		}
		if call.Value != nil {
			t.Fatalf("pre-primary step %d must not carry value", i)
		}
	}

	if got := jrnl.last(t).Outcome; got != "settled" {
		t.Fatalf("journal outcome = %q, want settled", got)
	}
	if o.State() != StateSettled {
		t.Fatalf("state = %s, want settled", o.State())
	}
}

func TestAddLiquidityDerivesSecondAmount(t *testing.T) {
	// 1:2 reserve ratio, so depositing 5000 native requires 10000 of the token.
	reader := &fakeReader{pair: existingPair(), allowances: map[common.Address]*big.Int{}}
	submitter := newFakeSubmitter()
	o, _ := newOrchestrator(reader, submitter, nil)

	it := Intent{
		Kind:    KindAddLiquidity,
		TokenA:  nativeMeta(),
		TokenB:  erc20Meta(),
		AmountA: big.NewInt(5_000),
	}
	if err := o.Execute(context.Background(), connected(), it); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// approve(erc20) then addLiquidityMOCA; no createPair for an existing pool.
	if len(submitter.calls) != 2 {
		t.Fatalf("expected 2 steps, got %d: %v", len(submitter.calls), submitter.trace)
	}
	if submitter.calls[0].To != erc20Addr || submitter.calls[1].To != routerAddr {
		t.Fatalf("unexpected targets: %s, %s", submitter.calls[0].To.Hex(), submitter.calls[1].To.Hex())
	}
	if len(reader.approvalChecks) != 1 || reader.approvalChecks[0].Int64() != 10_000 {
		t.Fatalf("derived token amount = %v, want [10000]", reader.approvalChecks)
	}
}

func TestStepsAreStrictlySequential(t *testing.T) {
	reader := &fakeReader{pair: missingPair(), allowances: map[common.Address]*big.Int{}}
	submitter := newFakeSubmitter()
	submitter.mineDelay = 20 * time.Millisecond
	o, _ := newOrchestrator(reader, submitter, nil)

	it := Intent{
		Kind:    KindCreatePool,
		TokenA:  nativeMeta(),
		TokenB:  erc20Meta(),
		AmountA: big.NewInt(5_000),
		AmountB: big.NewInt(10_000),
	}
	if err := o.Execute(context.Background(), connected(), it); err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := []string{"submit:0", "mined:0", "submit:1", "mined:1", "submit:2", "mined:2"}
	if len(submitter.trace) != len(want) {
		t.Fatalf("trace = %v, want %v", submitter.trace, want)
	}
	for i, ev := range want {
		if submitter.trace[i] != ev {
			t.Fatalf("step N+1 issued before step N confirmed: %v", submitter.trace)
		}
	}
}

func TestSecondIntentRejectedWhileBusy(t *testing.T) {
	reader := &fakeReader{pair: existingPair(), allowances: map[common.Address]*big.Int{
		erc20Addr: big.NewInt(1 << 40),
	}}
	submitter := newFakeSubmitter()
	submitter.mineDelay = 50 * time.Millisecond
	o, _ := newOrchestrator(reader, submitter, nil)

	it := Intent{Kind: KindSwap, TokenA: erc20Meta(), TokenB: nativeMeta(), AmountA: big.NewInt(100)}

	errs := make(chan error, 1)
	go func() { errs <- o.Execute(context.Background(), connected(), it) }()

	// Wait until the first intent has submitted its step.
	deadline := time.Now().Add(time.Second)
	for {
		submitter.mu.Lock()
		started := len(submitter.trace) > 0
		submitter.mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first intent never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := o.Execute(context.Background(), connected(), it); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent submission: got %v, want ErrBusy", err)
	}
	if err := <-errs; err != nil {
		t.Fatalf("first intent: %v", err)
	}
}

func TestWalletNotConnected(t *testing.T) {
	o, notes := newOrchestrator(&fakeReader{}, newFakeSubmitter(), nil)

	err := o.Execute(context.Background(), ExecContext{}, Intent{Kind: KindSwap})
	if !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("got %v, want ErrWalletNotConnected", err)
	}
	if o.State() != StateIdle {
		t.Fatalf("intent must never leave Idle, state = %s", o.State())
	}
	events := notes.Events()
	if len(events) != 1 || events[0].Kind != notify.KindInfo {
		t.Fatalf("expected one info notification, got %v", events)
	}
}

func TestSignerRejectionStopsPipeline(t *testing.T) {
	reader := &fakeReader{pair: existingPair(), allowances: map[common.Address]*big.Int{}}
	submitter := newFakeSubmitter()
	submitter.rejectAt = 0 // decline the approval step
	jrnl := &memJournal{}
	o, notes := newOrchestrator(reader, submitter, jrnl)

	it := Intent{Kind: KindSwap, TokenA: erc20Meta(), TokenB: nativeMeta(), AmountA: big.NewInt(100)}
	err := o.Execute(context.Background(), connected(), it)
	if !errors.Is(err, ErrSignerRejected) {
		t.Fatalf("got %v, want ErrSignerRejected", err)
	}

	// Later steps were never issued.
	if len(submitter.calls) != 0 {
		t.Fatalf("declined step must halt the plan, submitted %d calls", len(submitter.calls))
	}
	if o.State() != StateFailed {
		t.Fatalf("state = %s, want failed", o.State())
	}
	if got := jrnl.last(t).Outcome; got != "failed" {
		t.Fatalf("journal outcome = %q, want failed", got)
	}

	var errorEvents int
	for _, ev := range notes.Events() {
		if ev.Kind == notify.KindError {
			errorEvents++
		}
	}
	if errorEvents != 1 {
		t.Fatalf("exactly one error notification expected, got %d", errorEvents)
	}
}

func TestRevertAfterApprovalIsVisible(t *testing.T) {
	reader := &fakeReader{pair: existingPair(), allowances: map[common.Address]*big.Int{}}
	submitter := newFakeSubmitter()
	submitter.revertAt = 1 // approval lands, primary reverts
	jrnl := &memJournal{}
	o, notes := newOrchestrator(reader, submitter, jrnl)

	it := Intent{Kind: KindSwap, TokenA: erc20Meta(), TokenB: nativeMeta(), AmountA: big.NewInt(100)}
	err := o.Execute(context.Background(), connected(), it)
	if !errors.Is(err, ErrExecutionReverted) {
		t.Fatalf("got %v, want ErrExecutionReverted", err)
	}

	entry := jrnl.last(t)
	if entry.StepsDone != 1 {
		t.Fatalf("steps done = %d, want 1 (the approval)", entry.StepsDone)
	}
	if entry.Cause == "" {
		t.Fatalf("root cause must be journaled")
	}

	var msg string
	for _, ev := range notes.Events() {
		if ev.Kind == notify.KindError {
			msg = ev.Message
		}
	}
	if !strings.Contains(msg, "Approval confirmed") {
		t.Fatalf("partial completion must be visible to the user, got %q", msg)
	}
	if strings.Contains(msg, "revert") || strings.Contains(msg, entry.Cause) {
		t.Fatalf("root cause must not leak into the user message: %q", msg)
	}
}

func TestSwapWithoutPairFails(t *testing.T) {
	reader := &fakeReader{pair: missingPair()}
	o, notes := newOrchestrator(reader, newFakeSubmitter(), nil)

	it := Intent{Kind: KindSwap, TokenA: erc20Meta(), TokenB: nativeMeta(), AmountA: big.NewInt(100)}
	err := o.Execute(context.Background(), connected(), it)
	if !errors.Is(err, quote.ErrNoLiquidity) {
		t.Fatalf("got %v, want ErrNoLiquidity", err)
	}

	found := false
	for _, ev := range notes.Events() {
		if ev.Kind == notify.KindError && strings.Contains(ev.Message, "No liquidity") {
			found = true
		}
	}
	if !found {
		t.Fatalf("user must be told no route exists: %v", notes.Events())
	}
}

func TestWrapPlanBypassesPool(t *testing.T) {
	// Wrap quoting is 1:1 and needs no pair state at all.
	reader := &fakeReader{pairErr: errors.New("reader must not be called")}
	submitter := newFakeSubmitter()
	o, _ := newOrchestrator(reader, submitter, nil)

	it := Intent{Kind: KindWrap, TokenA: nativeMeta(), TokenB: erc20Meta(), AmountA: big.NewInt(777)}
	if err := o.Execute(context.Background(), connected(), it); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(submitter.calls) != 1 {
		t.Fatalf("wrap is a single step, got %d", len(submitter.calls))
	}
	call := submitter.calls[0]
	if call.To != wrappedAddr || call.Value == nil || call.Value.Int64() != 777 {
		t.Fatalf("wrap must deposit value at the wrapped contract: %+v", call)
	}
}
