// Package observability exposes an optional, read-only HTTP surface over
// round progress: a GraphQL query endpoint for historical round summaries,
// a server-sent-events heartbeat for dispatch progress, and a websocket
// stream for live round-phase transitions. None of it can influence round
// orchestration; it only ever reads state the core pushes into a Hub.
package observability

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// ProgressEvent is one update pushed by the round loop: a phase transition,
// a dispatch-progress tick, or a settlement result.
type ProgressEvent struct {
	RoundID string         `json:"round_id"`
	Phase   string         `json:"phase"`
	Detail  string         `json:"detail"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Hub fans one ProgressEvent stream out to every connected SSE and
// websocket client. Each listener buffers up to 16 events; once a slow
// listener's buffer is full, newer events are dropped for it, so a client
// that can't keep up just misses ticks.
type Hub struct {
	mu        sync.Mutex
	listeners map[chan ProgressEvent]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[chan ProgressEvent]struct{})}
}

// Publish fans out ev to every currently-subscribed listener, non-blocking.
func (h *Hub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			log.Debug("observability: dropping progress event for slow listener", "round_id", ev.RoundID)
		}
	}
}

// subscribe registers a new listener channel and returns an unsubscribe func.
func (h *Hub) subscribe() (chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 16)
	h.mu.Lock()
	h.listeners[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.listeners, ch)
		h.mu.Unlock()
		close(ch)
	}
}
