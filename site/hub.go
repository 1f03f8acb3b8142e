package site

import (
	"log/slog"
	"sync"

	"furitingoasis/greenhouse/relays"
)

// Hub fans relay snapshots out to the websocket clients. OnRelays runs on
// the poll tick, so a slow client loses snapshots instead of blocking it.
type Hub struct {
	mu      sync.Mutex
	clients map[chan relays.State]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan relays.State]struct{})}
}

func (h *Hub) OnRelays(s relays.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- s:
		default:
			slog.Warn("websocket client is behind, relay snapshot dropped")
		}
	}
}

func (h *Hub) join() chan relays.State {
	ch := make(chan relays.State, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) leave(ch chan relays.State) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// Clients reports how many streams are open.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
