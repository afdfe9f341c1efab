package quote

import "errors"

var (
	// ErrNoLiquidity means the pair is absent or a reserve is empty; there is
	// no route to quote.
	ErrNoLiquidity = errors.New("no liquidity")

	// ErrInvalidAmount means the input amount is missing or non-positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTokenNotInPair means the input token is not a leg of the pair.
	ErrTokenNotInPair = errors.New("token not in pair")

	// ErrInvalidBps means a fee or slippage tolerance is at or beyond 100%.
	// Unsigned bps arithmetic would wrap around and misprice silently.
	ErrInvalidBps = errors.New("bps value out of range")
)
