package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
)

// Backend is the view-call surface the reader needs from the chain client.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader answers pair, reserve, allowance, and position queries against the
// factory and pair contracts. Every answer is a fresh snapshot; nothing about
// liquidity state is cached.
type Reader struct {
	backend Backend
	factory common.Address
	wrapped common.Address
	logger  *zap.Logger
}

func NewReader(backend Backend, factory, wrapped common.Address, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{backend: backend, factory: factory, wrapped: wrapped, logger: logger}
}

// Wrapped returns the wrapped-native contract address.
func (r *Reader) Wrapped() common.Address {
	return r.wrapped
}

// PairState resolves native legs to the wrapped address and fetches the pair
// snapshot for the token combination. A missing pair yields a state with a
// zero pair address and zero reserves, not an error.
func (r *Reader) PairState(ctx context.Context, tokenA, tokenB model.Asset) (model.PairState, error) {
	a := tokenA.Resolve(r.wrapped)
	b := tokenB.Resolve(r.wrapped)

	factoryABI, err := FactoryABI()
	if err != nil {
		return model.PairState{}, err
	}

	values, err := r.call(ctx, r.factory, factoryABI, "getPair", a, b)
	if err != nil {
		return model.PairState{}, err
	}
	pair, err := asAddress(values[0])
	if err != nil {
		return model.PairState{}, fmt.Errorf("getPair: %w", err)
	}

	if pair == (common.Address{}) {
		return model.PairState{
			Token0:   a,
			Token1:   b,
			Reserve0: new(big.Int),
			Reserve1: new(big.Int),
		}, nil
	}

	return r.PairStateAt(ctx, pair)
}

// PairStateAt fetches the snapshot for a known pair address.
func (r *Reader) PairStateAt(ctx context.Context, pair common.Address) (model.PairState, error) {
	pairABI, err := PairABI()
	if err != nil {
		return model.PairState{}, err
	}

	state := model.PairState{Pair: pair}

	values, err := r.call(ctx, pair, pairABI, "token0")
	if err != nil {
		return model.PairState{}, err
	}
	if state.Token0, err = asAddress(values[0]); err != nil {
		return model.PairState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = r.call(ctx, pair, pairABI, "token1")
	if err != nil {
		return model.PairState{}, err
	}
	if state.Token1, err = asAddress(values[0]); err != nil {
		return model.PairState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = r.call(ctx, pair, pairABI, "getReserves")
	if err != nil {
		return model.PairState{}, err
	}
	if len(values) < 2 {
		return model.PairState{}, fmt.Errorf("%w: getReserves returned %d values", ErrChainRead, len(values))
	}
	if state.Reserve0, err = asBigInt(values[0]); err != nil {
		return model.PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	if state.Reserve1, err = asBigInt(values[1]); err != nil {
		return model.PairState{}, fmt.Errorf("reserve1: %w", err)
	}

	values, err = r.call(ctx, pair, pairABI, "swapFee")
	if err != nil {
		return model.PairState{}, err
	}
	fee, err := asBigInt(values[0])
	if err != nil {
		return model.PairState{}, fmt.Errorf("swapFee: %w", err)
	}
	state.FeeBps = uint32(fee.Uint64())

	return state, nil
}

// AllPairsLength returns the number of pairs the factory has created.
func (r *Reader) AllPairsLength(ctx context.Context) (uint64, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return 0, err
	}
	values, err := r.call(ctx, r.factory, factoryABI, "allPairsLength")
	if err != nil {
		return 0, err
	}
	length, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("allPairsLength: %w", err)
	}
	return length.Uint64(), nil
}

// AllPairs returns the pair address at the given factory index.
func (r *Reader) AllPairs(ctx context.Context, index uint64) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, err
	}
	values, err := r.call(ctx, r.factory, factoryABI, "allPairs", new(big.Int).SetUint64(index))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// Allowance returns the ERC20 allowance granted by owner to spender.
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err := r.call(ctx, token, erc20, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// NeedsApproval reports whether a spender needs an approval transaction
// before it can pull amount from owner. The native asset is value-attached,
// never allowance-gated, so it never needs approval.
func (r *Reader) NeedsApproval(ctx context.Context, asset model.Asset, owner, spender common.Address, amount *big.Int) (bool, error) {
	if asset.IsNative() {
		return false, nil
	}
	token, _ := asset.Address()
	allowance, err := r.Allowance(ctx, token, owner, spender)
	if err != nil {
		return false, err
	}
	return allowance.Cmp(amount) < 0, nil
}

// LPBalance returns the owner's LP token balance for a pair.
func (r *Reader) LPBalance(ctx context.Context, pair, owner common.Address) (*big.Int, error) {
	pairABI, err := PairABI()
	if err != nil {
		return nil, err
	}
	values, err := r.call(ctx, pair, pairABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// PendingFees returns the owner's unclaimed fees on a pair.
func (r *Reader) PendingFees(ctx context.Context, pair, owner common.Address) (fee0, fee1 *big.Int, err error) {
	pairABI, err := PairABI()
	if err != nil {
		return nil, nil, err
	}
	values, err := r.call(ctx, pair, pairABI, "pendingFees", owner)
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("%w: pendingFees returned %d values", ErrChainRead, len(values))
	}
	if fee0, err = asBigInt(values[0]); err != nil {
		return nil, nil, err
	}
	if fee1, err = asBigInt(values[1]); err != nil {
		return nil, nil, err
	}
	return fee0, fee1, nil
}

func (r *Reader) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := r.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrChainRead, method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
