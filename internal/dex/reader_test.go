package dex

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
)

var (
	factoryAddr = common.HexToAddress("0xaaa0000000000000000000000000000000000002")
	wrappedAddr = common.HexToAddress("0xaaa0000000000000000000000000000000000003")
	tokenAddr   = common.HexToAddress("0xbbb0000000000000000000000000000000000001")
	pairAddr    = common.HexToAddress("0xccc0000000000000000000000000000000000001")
	ownerAddr   = common.HexToAddress("0xddd0000000000000000000000000000000000001")
	routerAddr  = common.HexToAddress("0xaaa0000000000000000000000000000000000001")
)

// fakeBackend answers eth_call by method selector.
type fakeBackend struct {
	responses map[string][]byte
	err       error
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	selector := hex.EncodeToString(msg.Data[:4])
	resp, ok := b.responses[selector]
	if !ok {
		return nil, errors.New("unexpected call " + selector)
	}
	return resp, nil
}

func selectorOf(t *testing.T, load func() (abi.ABI, error), method string) string {
	t.Helper()
	parsed, err := load()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return hex.EncodeToString(parsed.Methods[method].ID)
}

func packOutputs(t *testing.T, load func() (abi.ABI, error), method string, values ...interface{}) []byte {
	t.Helper()
	parsed, err := load()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack outputs of %s: %v", method, err)
	}
	return out
}

func newTestReader(backend Backend) *Reader {
	return NewReader(backend, factoryAddr, wrappedAddr, nil)
}

func TestPairStateMissingPair(t *testing.T) {
	backend := &fakeBackend{responses: map[string][]byte{
		selectorOf(t, FactoryABI, "getPair"): packOutputs(t, FactoryABI, "getPair", common.Address{}),
	}}
	reader := newTestReader(backend)

	state, err := reader.PairState(context.Background(), model.Native(), model.Token(tokenAddr))
	if err != nil {
		t.Fatalf("missing pair must not be an error: %v", err)
	}
	if state.Exists() {
		t.Fatalf("zero factory answer must signal no pool, got %s", state.Pair.Hex())
	}
	if state.Reserve0.Sign() != 0 || state.Reserve1.Sign() != 0 {
		t.Fatalf("missing pair must carry zero reserves")
	}
	// Native leg resolved to the wrapped contract for the lookup.
	if state.Token0 != wrappedAddr {
		t.Fatalf("native leg not resolved to wrapped address: %s", state.Token0.Hex())
	}
}

func TestPairStateExisting(t *testing.T) {
	backend := &fakeBackend{responses: map[string][]byte{
		selectorOf(t, FactoryABI, "getPair"):  packOutputs(t, FactoryABI, "getPair", pairAddr),
		selectorOf(t, PairABI, "token0"):      packOutputs(t, PairABI, "token0", wrappedAddr),
		selectorOf(t, PairABI, "token1"):      packOutputs(t, PairABI, "token1", tokenAddr),
		selectorOf(t, PairABI, "getReserves"): packOutputs(t, PairABI, "getReserves", big.NewInt(1000), big.NewInt(2000)),
		selectorOf(t, PairABI, "swapFee"):     packOutputs(t, PairABI, "swapFee", big.NewInt(30)),
	}}
	reader := newTestReader(backend)

	state, err := reader.PairState(context.Background(), model.Native(), model.Token(tokenAddr))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.Exists() || state.Pair != pairAddr {
		t.Fatalf("pair address mismatch: %s", state.Pair.Hex())
	}
	if state.Reserve0.Int64() != 1000 || state.Reserve1.Int64() != 2000 {
		t.Fatalf("reserves = %s/%s, want 1000/2000", state.Reserve0, state.Reserve1)
	}
	if state.FeeBps != 30 {
		t.Fatalf("fee = %d, want 30", state.FeeBps)
	}
}

func TestPairStateReadFailure(t *testing.T) {
	reader := newTestReader(&fakeBackend{err: errors.New("connection refused")})

	_, err := reader.PairState(context.Background(), model.Native(), model.Token(tokenAddr))
	if !errors.Is(err, ErrChainRead) {
		t.Fatalf("transport failures must wrap ErrChainRead, got %v", err)
	}
}

func TestNeedsApprovalBoundaries(t *testing.T) {
	amount := big.NewInt(1_000_000)

	cases := []struct {
		name      string
		allowance *big.Int
		want      bool
	}{
		{"zero allowance", big.NewInt(0), true},
		{"one short", new(big.Int).Sub(amount, big.NewInt(1)), true},
		{"exact", new(big.Int).Set(amount), false},
		{"surplus", new(big.Int).Add(amount, big.NewInt(1)), false},
	}

	for _, tc := range cases {
		backend := &fakeBackend{responses: map[string][]byte{
			selectorOf(t, ERC20ABI, "allowance"): packOutputs(t, ERC20ABI, "allowance", tc.allowance),
		}}
		reader := newTestReader(backend)

		got, err := reader.NeedsApproval(context.Background(), model.Token(tokenAddr), ownerAddr, routerAddr, amount)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: NeedsApproval = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNativeNeverNeedsApproval(t *testing.T) {
	// No backend response registered: the check must not reach the chain.
	reader := newTestReader(&fakeBackend{responses: map[string][]byte{}})

	for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), 200)} {
		got, err := reader.NeedsApproval(context.Background(), model.Native(), ownerAddr, routerAddr, amount)
		if err != nil {
			t.Fatalf("native check errored: %v", err)
		}
		if got {
			t.Fatalf("native asset must never need approval (amount %s)", amount)
		}
	}
}

func TestTokenMetaBytes32Fallback(t *testing.T) {
	var symbol [32]byte
	copy(symbol[:], "MKR")
	var name [32]byte
	copy(name[:], "Maker")

	backend := &fakeBackend{responses: map[string][]byte{
		selectorOf(t, ERC20ABI, "decimals"): packOutputs(t, ERC20ABI, "decimals", uint8(18)),
		// string-ABI symbol/name decode fails against bytes32 data, which
		// pushes the reader to the fallback ABI.
		selectorOf(t, ERC20ABI, "symbol"): packOutputs(t, ERC20Bytes32ABI, "symbol", symbol),
		selectorOf(t, ERC20ABI, "name"):   packOutputs(t, ERC20Bytes32ABI, "name", name),
	}}
	reader := newTestReader(backend)

	meta, err := reader.TokenMeta(context.Background(), tokenAddr)
	if err != nil {
		t.Fatalf("token meta: %v", err)
	}
	if meta.Symbol != "MKR" || meta.Name != "Maker" {
		t.Fatalf("bytes32 fallback failed: %q %q", meta.Symbol, meta.Name)
	}
	if meta.Decimals != 18 {
		t.Fatalf("decimals = %d, want 18", meta.Decimals)
	}
}
