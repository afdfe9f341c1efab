// Package journal records terminal intent outcomes for diagnostics. The
// user-visible surface only ever sees sanitized notification messages; the
// journal keeps the root cause.
package journal

import (
	"context"
	"time"
)

// Entry is one terminal intent outcome.
type Entry struct {
	IntentKind string    `json:"intent_kind"`
	Account    string    `json:"account"`
	Pair       string    `json:"pair,omitempty"`
	Outcome    string    `json:"outcome"` // "settled" or "failed"
	Cause      string    `json:"cause,omitempty"`
	TxHashes   []string  `json:"tx_hashes,omitempty"`
	StepsDone  int       `json:"steps_done"`
	StepsTotal int       `json:"steps_total"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal is a sink for intent outcomes.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader exposes recorded outcomes for diagnostics, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
