package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// encodeSnapshot renders the RGBA buffer as a JSON array of byte
// values, the wire form shared by the canvas read endpoint and the
// broadcast stream.
func encodeSnapshot(snapshot []byte) []byte {
	values := make([]int, len(snapshot))
	for i, b := range snapshot {
		values[i] = int(b)
	}
	payload, _ := json.Marshal(values)
	return payload
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func canvasHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		a.mu.Lock()
		snapshot := a.canvas.Snapshot()
		a.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write(encodeSnapshot(snapshot))
	}
}

// mutateHandler is the single-pixel write path: credential check,
// request validation, then cooldown consume plus buffer write as one
// critical section. The 202 goes out before durability: broadcast
// carries the change to viewers and the persister catches up on its
// own time.
func mutateHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		token := deviceToken(r)
		if token == "" {
			http.Error(w, "missing device credential", http.StatusBadRequest)
			return
		}

		var req PixelMutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		if err := a.canvas.Validate(req); err != nil {
			switch {
			case errors.Is(err, ErrOutOfBounds):
				http.Error(w, "pixel out of bounds", http.StatusBadRequest)
			default:
				http.Error(w, "invalid color", http.StatusBadRequest)
			}
			return
		}

		x, y := int(req.X), int(req.Y)
		color := RGB{R: int(req.Color.R), G: int(req.Color.G), B: int(req.Color.B)}

		a.mu.Lock()
		if err := a.ledger.CheckAndConsume(token, a.cooldown); err != nil {
			a.mu.Unlock()
			switch {
			case errors.Is(err, ErrUnknownDevice):
				http.Error(w, "unknown device credential", http.StatusBadRequest)
			default:
				http.Error(w, "too soon", http.StatusBadRequest)
			}
			return
		}
		a.canvas.Apply(x, y, color)
		snapshot := a.canvas.Snapshot()
		a.mu.Unlock()

		a.hub.Broadcast(encodeSnapshot(snapshot))
		a.persister.EnqueuePixel(a.canvas.PixelIndex(x, y)+1, color)

		w.WriteHeader(http.StatusAccepted)
	}
}

// parseColorParam parses "r,g,b" into an RGB, rejecting anything that
// is not three integers in range.
func parseColorParam(raw string) (RGB, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return RGB{}, false
	}
	var channels [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, false
		}
		channels[i] = v
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, true
}
