package dashboard

import (
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

// Update is one refreshed dashboard, already encoded for websocket clients.
type Update struct {
	Variant     string
	Status      dashboard.Status
	GeneratedAt time.Time
	Payload     []byte
}

// Hub fans refreshed dashboards out to live subscribers and remembers the
// latest update per variant for clients that connect later.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Update]struct{}
	last map[string]Update
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[chan Update]struct{}),
		last: make(map[string]Update),
	}
}

// Publish records u and delivers it to every subscriber. Slow subscribers
// miss updates instead of blocking the publisher.
func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	h.last[u.Variant] = u
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Subscribe returns a channel of updates and a cancel func that must be
// called to release it.
func (h *Hub) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Last returns the most recent update of each variant, ordered by variant.
func (h *Hub) Last() []Update {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Update, 0, len(h.last))
	for _, u := range h.last {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
	return out
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
