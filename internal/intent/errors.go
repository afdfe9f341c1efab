package intent

import "errors"

var (
	// ErrBusy rejects a second submission while an intent is in flight.
	// Concurrent submissions from one signer race on nonce ordering.
	ErrBusy = errors.New("an intent is already in flight")

	// ErrWalletNotConnected is the pre-flight guard; the intent never leaves
	// Idle.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrInvalidIntent means the intent is structurally incomplete.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrSignerRejected means the user declined signing a required step.
	ErrSignerRejected = errors.New("signer rejected")

	// ErrChainWrite marks a transport failure on the write path.
	ErrChainWrite = errors.New("chain write failed")

	// ErrExecutionReverted means the chain rejected an executed transaction,
	// e.g. the slippage bound was exceeded against stale reserves.
	ErrExecutionReverted = errors.New("execution reverted")
)
