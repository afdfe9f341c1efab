package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PairState is a point-in-time snapshot of a pool. It is re-fetched for every
// quoting need, never cached: the chain's own minimum-output check guards
// against the snapshot going stale between quote and submission.
type PairState struct {
	Pair     common.Address `json:"pair"`
	Token0   common.Address `json:"token0"`
	Token1   common.Address `json:"token1"`
	Reserve0 *big.Int       `json:"reserve0"`
	Reserve1 *big.Int       `json:"reserve1"`
	FeeBps   uint32         `json:"fee_bps"`
}

// Exists reports whether the factory knows a pair for the token combination.
// The factory returns the zero address for unknown pairs.
func (p PairState) Exists() bool {
	return p.Pair != (common.Address{})
}

// ReservesFor orients the reserves relative to the input token. ok is false
// when the token is not one of the pair's legs.
func (p PairState) ReservesFor(tokenIn common.Address) (reserveIn, reserveOut *big.Int, ok bool) {
	switch tokenIn {
	case p.Token0:
		return p.Reserve0, p.Reserve1, true
	case p.Token1:
		return p.Reserve1, p.Reserve0, true
	default:
		return nil, nil, false
	}
}
