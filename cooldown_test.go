package main

import (
	"testing"
	"time"
)

func TestFirstMutationAlwaysAccepted(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("tok")

	if err := l.CheckAndConsume("tok", time.Hour); err != nil {
		t.Fatalf("first mutation rejected: %v", err)
	}
}

func TestSecondMutationWithinCooldownRejected(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("tok")

	if err := l.CheckAndConsume("tok", 10*time.Second); err != nil {
		t.Fatalf("first mutation rejected: %v", err)
	}
	if err := l.CheckAndConsume("tok", 10*time.Second); err != ErrTooSoon {
		t.Fatalf("second immediate mutation = %v, want ErrTooSoon", err)
	}
}

func TestRejectionDoesNotConsumeWindow(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("tok")
	if err := l.CheckAndConsume("tok", time.Hour); err != nil {
		t.Fatalf("first mutation rejected: %v", err)
	}
	accepted := l.entries["tok"]

	if err := l.CheckAndConsume("tok", time.Hour); err != ErrTooSoon {
		t.Fatalf("expected ErrTooSoon, got %v", err)
	}
	if !l.entries["tok"].Equal(accepted) {
		t.Fatal("rejected attempt moved the last-accepted timestamp")
	}
}

func TestGraceAbsorbsBoundaryJitter(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("tok")
	if err := l.CheckAndConsume("tok", time.Hour); err != nil {
		t.Fatalf("first mutation rejected: %v", err)
	}

	// Backdate the entry to just inside the grace window: a request
	// arriving cooldownGrace early must still be accepted.
	cooldown := 10 * time.Second
	l.entries["tok"] = time.Now().UTC().Add(-(cooldown - cooldownGrace/2))

	if err := l.CheckAndConsume("tok", cooldown); err != nil {
		t.Fatalf("boundary mutation rejected: %v", err)
	}
}

func TestElapsedCooldownAccepted(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("tok")
	if err := l.CheckAndConsume("tok", time.Hour); err != nil {
		t.Fatalf("first mutation rejected: %v", err)
	}

	l.entries["tok"] = time.Now().UTC().Add(-11 * time.Second)

	if err := l.CheckAndConsume("tok", 10*time.Second); err != nil {
		t.Fatalf("post-cooldown mutation rejected: %v", err)
	}
}

func TestUnknownTokenRejected(t *testing.T) {
	l := NewCooldownLedger()

	if err := l.CheckAndConsume("never-seen", time.Second); err != ErrUnknownDevice {
		t.Fatalf("unknown token = %v, want ErrUnknownDevice", err)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("tok")
	if err := l.CheckAndConsume("tok", time.Hour); err != nil {
		t.Fatalf("first mutation rejected: %v", err)
	}
	stamp := l.entries["tok"]

	l.Register("tok")

	if !l.entries["tok"].Equal(stamp) {
		t.Fatal("re-registering overwrote the last-accepted timestamp")
	}
	if l.Size() != 1 {
		t.Fatalf("ledger size = %d, want 1", l.Size())
	}
}

func TestClearIfEmpty(t *testing.T) {
	l := NewCooldownLedger()
	l.Register("a")
	l.Register("b")

	l.ClearIfEmpty(1)
	if l.Size() != 2 {
		t.Fatal("ledger cleared while viewers were connected")
	}

	l.ClearIfEmpty(0)
	if l.Size() != 0 {
		t.Fatalf("ledger size after clear = %d, want 0", l.Size())
	}
	if l.Recognizes("a") {
		t.Fatal("cleared token still recognized")
	}
}
