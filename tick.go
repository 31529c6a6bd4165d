package main

import (
	"log"
	"time"
)

const ledgerCleanupInterval = 60 * time.Second

// startLedgerCleanupLoop periodically drops every cooldown entry once
// no viewers remain connected. Timer-driven rather than per
// disconnect, so the cleanup is approximate on purpose: it only has
// to bound memory, not track devices precisely.
func startLedgerCleanupLoop(a *app) {
	ticker := time.NewTicker(ledgerCleanupInterval)

	go func() {
		for range ticker.C {
			viewers := a.hub.ViewerCount()

			a.mu.Lock()
			before := a.ledger.Size()
			a.ledger.ClearIfEmpty(viewers)
			after := a.ledger.Size()
			a.mu.Unlock()

			if before != after {
				log.Println("Cooldown ledger cleared:", before, "entries dropped (no viewers connected)")
			}
		}
	}()
}
