package alerts

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// Event is one item on the alert stream: either a level reading from a poll
// tick or a fired alert.
type Event struct {
	Type  string // "level" or "alert"
	Level *LevelEvent
	Alert *models.Alert
}

// LevelEvent carries one observed sound level.
type LevelEvent struct {
	Room       string    `json:"room"`
	SoundLevel float64   `json:"sound_level"`
	MeasuredAt time.Time `json:"measured_at"`
}

// Hub fans live events out to SSE subscribers. Slow subscribers lose events
// rather than stall the publishers; the poll loop never blocks on a client.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// subscriberBuffer bounds how far a subscriber may lag before events drop.
const subscriberBuffer = 16

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// PublishLevel broadcasts a level reading. Implements the poll loop's sink.
func (h *Hub) PublishLevel(room string, level float64, at time.Time) {
	h.broadcast(Event{Type: "level", Level: &LevelEvent{Room: room, SoundLevel: level, MeasuredAt: at}})
}

// PublishAlert broadcasts a fired alert.
func (h *Hub) PublishAlert(alert *models.Alert) {
	h.broadcast(Event{Type: "alert", Alert: alert})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not draining; drop rather than block.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// marshalEvent renders the event payload for the SSE data field.
func marshalEvent(ev Event) (string, bool) {
	var payload any
	switch ev.Type {
	case "level":
		payload = ev.Level
	case "alert":
		payload = ev.Alert
	default:
		return "", false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[alerts] marshal %s event: %v", ev.Type, err)
		return "", false
	}
	return string(data), true
}
