package quote

import (
	"math/big"
	"testing"
)

func TestSessionStaleCommitDiscarded(t *testing.T) {
	var s Session

	first := s.Begin()
	second := s.Begin() // input changed before the first fetch resolved

	if s.Commit(first, Quote{AmountOut: big.NewInt(1), MinOut: big.NewInt(1)}) {
		t.Fatalf("superseded ticket must not commit")
	}
	if _, ok := s.Latest(); ok {
		t.Fatalf("stale result must not become visible")
	}

	if !s.Commit(second, Quote{AmountOut: big.NewInt(2), MinOut: big.NewInt(2)}) {
		t.Fatalf("current ticket must commit")
	}
	q, ok := s.Latest()
	if !ok || q.AmountOut.Int64() != 2 {
		t.Fatalf("latest = %+v, want amountOut 2", q)
	}
}

func TestSessionBeginClearsDisplay(t *testing.T) {
	var s Session

	tk := s.Begin()
	s.Commit(tk, Quote{AmountOut: big.NewInt(7), MinOut: big.NewInt(7)})

	s.Begin() // new input: old quote no longer applies
	if _, ok := s.Latest(); ok {
		t.Fatalf("new ticket must clear the committed quote")
	}
}
