package dex

import "errors"

var (
	// ErrChainRead marks a transport or RPC failure on a view call. Callers
	// degrade to a "quote unavailable" state rather than failing hard.
	ErrChainRead = errors.New("chain read failed")
)
