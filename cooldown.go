package main

import (
	"errors"
	"time"
)

var (
	ErrUnknownDevice = errors.New("UNKNOWN_DEVICE")
	ErrTooSoon       = errors.New("TOO_SOON")
)

// cooldownGrace absorbs clock and network jitter so a request issued
// right at the cooldown boundary is not spuriously rejected.
const cooldownGrace = 50 * time.Millisecond

// CooldownLedger maps device token -> time of the last accepted
// mutation (zero if the device never mutated). It has
// no lock of its own: the owning app's mutex guards it together with
// the canvas so that check-and-consume plus the buffer write form one
// critical section.
type CooldownLedger struct {
	entries map[string]time.Time
}

func NewCooldownLedger() *CooldownLedger {
	return &CooldownLedger{entries: make(map[string]time.Time)}
}

// Register inserts the token with the zero timestamp if absent, so a
// fresh device's first mutation is never cooldown-blocked; presence
// alone marks registration. No-op for a known token.
func (l *CooldownLedger) Register(token string) {
	if _, ok := l.entries[token]; ok {
		return
	}
	l.entries[token] = time.Time{}
}

func (l *CooldownLedger) Recognizes(token string) bool {
	_, ok := l.entries[token]
	return ok
}

func (l *CooldownLedger) Size() int {
	return len(l.entries)
}

// CheckAndConsume enforces the minimum inter-mutation interval. On
// acceptance the entry's timestamp advances to now in the same step,
// so no second mutation for the token can slip between check and
// update. Rejected attempts leave the timestamp alone: the ledger
// records accepted writes only.
func (l *CooldownLedger) CheckAndConsume(token string, cooldown time.Duration) error {
	last, ok := l.entries[token]
	if !ok {
		return ErrUnknownDevice
	}
	now := time.Now().UTC()
	if now.Sub(last) < cooldown-cooldownGrace {
		return ErrTooSoon
	}
	l.entries[token] = now
	return nil
}

// ClearIfEmpty drops every entry once no viewers remain connected. A
// periodic, approximate memory bound: devices that sat out the idle
// window simply get re-registered (and a fresh token) on their next
// handshake.
func (l *CooldownLedger) ClearIfEmpty(liveViewers int) {
	if liveViewers > 0 || len(l.entries) == 0 {
		return
	}
	l.entries = make(map[string]time.Time)
}
