package main

import (
	"net/http"
	"time"
)

const streamKeepAliveInterval = 15 * time.Second

// streamHandler serves the pixel-sync group over server-sent events.
// The device credential is issued (or recognized) here, during the
// handshake, before any stream bytes are written; this is the one
// place a new device gets its token. Every accepted mutation or reset
// then arrives as a "canvas updated" event carrying the full frame.
func streamHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		if _, err := a.ensureDevice(w, r); err != nil {
			http.Error(w, "Failed to issue device credential", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		sendFrame := func(payload []byte) bool {
			if _, err := w.Write([]byte("event: canvas updated\n")); err != nil {
				return false
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return false
			}
			if _, err := w.Write(payload); err != nil {
				return false
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		viewerID, updates := a.hub.Subscribe()
		defer a.hub.Unsubscribe(viewerID)

		// Initial frame so a new viewer doesn't wait for the next
		// mutation to see the canvas.
		a.mu.Lock()
		snapshot := a.canvas.Snapshot()
		a.mu.Unlock()
		if !sendFrame(encodeSnapshot(snapshot)) {
			return
		}

		ticker := time.NewTicker(streamKeepAliveInterval)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-updates:
				if !sendFrame(payload) {
					return
				}
			case <-ticker.C:
				if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
