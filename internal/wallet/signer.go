package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrRejected is returned by a Signer when the user declines to sign.
var ErrRejected = errors.New("signing rejected")

// Signer is the capability handed to the engine by the wallet layer. Key
// management and signature cryptography live behind this boundary; the engine
// only assembles transactions and asks for signatures.
type Signer interface {
	// Account returns the connected account address.
	Account() common.Address

	// SignTx signs the prepared transaction for the given chain ID.
	// Implementations return ErrRejected (possibly wrapped) when the user
	// declines.
	SignTx(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}
