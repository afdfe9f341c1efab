package notify

import (
	"testing"
	"time"
)

func TestStreamOrderAndDismiss(t *testing.T) {
	s := NewStream(time.Minute)
	defer s.Close()

	first := s.Push(KindInfo, "one")
	second := s.Push(KindSuccess, "two")
	third := s.Push(KindError, "three")

	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"one", "two", "three"} {
		if events[i].Message != want {
			t.Fatalf("events out of order: %v", events)
		}
	}

	s.Dismiss(second)
	events = s.Events()
	if len(events) != 2 || events[0].ID != first || events[1].ID != third {
		t.Fatalf("dismiss removed the wrong event: %v", events)
	}

	// Idempotent: dismissing again, or an unknown id, changes nothing.
	s.Dismiss(second)
	s.Dismiss("no-such-id")
	if got := len(s.Events()); got != 2 {
		t.Fatalf("idempotent dismiss violated, %d events", got)
	}
}

func TestStreamAutoExpiry(t *testing.T) {
	s := NewStream(20 * time.Millisecond)
	defer s.Close()

	s.Push(KindInfo, "short lived")
	if len(s.Events()) != 1 {
		t.Fatalf("event should be visible before expiry")
	}

	deadline := time.Now().Add(time.Second)
	for len(s.Events()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("event did not expire")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamExpiryIsIndependent(t *testing.T) {
	s := NewStream(30 * time.Millisecond)
	defer s.Close()

	early := s.Push(KindInfo, "early")
	s.Dismiss(early)
	late := s.Push(KindInfo, "late")

	// Dismissing the first event must not retract the second.
	events := s.Events()
	if len(events) != 1 || events[0].ID != late {
		t.Fatalf("sibling affected by dismissal: %v", events)
	}
}
