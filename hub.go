package main

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// viewerBufferDepth is small on purpose: every broadcast carries the
// full frame, so a viewer that misses one is made whole by the next.
const viewerBufferDepth = 4

// BroadcastHub fans canvas snapshots out to every connected viewer.
// One logical group, best-effort delivery: no acks, no retries, no
// backpressure. Each viewer owns a buffered channel; a full channel
// means the viewer skips that frame.
type BroadcastHub struct {
	mu      sync.Mutex
	viewers map[string]chan []byte
}

func NewBroadcastHub() *BroadcastHub {
	return &BroadcastHub{viewers: make(map[string]chan []byte)}
}

// Subscribe joins the group and returns the viewer's id and its
// update channel. Callers must Unsubscribe with the same id when the
// connection goes away.
func (h *BroadcastHub) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, viewerBufferDepth)

	h.mu.Lock()
	h.viewers[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *BroadcastHub) Unsubscribe(id string) {
	h.mu.Lock()
	delete(h.viewers, id)
	h.mu.Unlock()
}

func (h *BroadcastHub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Broadcast delivers one already-encoded snapshot to the group
// without blocking on any single viewer.
func (h *BroadcastHub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.viewers {
		select {
		case ch <- payload:
		default:
			log.Printf("broadcast: viewer %s lagging, frame skipped", id)
		}
	}
}
