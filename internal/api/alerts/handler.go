// Package alerts implements the alert history endpoints and the live SSE
// stream carrying level readings and fired alerts.
package alerts

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
	"github.com/quiet-rooms/noisewatch/internal/monitor"
)

// Response helpers (same pattern as locations)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const errCodeInternalError = "INTERNAL_ERROR"

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

// StreamConfig bounds SSE connections.
type StreamConfig struct {
	MaxDuration time.Duration
	Keepalive   time.Duration
}

// Handler serves alert history and the live event stream.
type Handler struct {
	monitor *monitor.Monitor
	hub     *Hub
	stream  StreamConfig
}

// NewHandler creates an alert handler. hub may be nil, in which case the
// stream endpoint reports unavailable.
func NewHandler(m *monitor.Monitor, hub *Hub, stream StreamConfig) *Handler {
	if stream.MaxDuration == 0 {
		stream.MaxDuration = 30 * time.Minute
	}
	if stream.Keepalive == 0 {
		stream.Keepalive = 15 * time.Second
	}
	return &Handler{monitor: m, hub: hub, stream: stream}
}

// History returns today's alerts, most recent first. The list empties at the
// daily reset.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history := h.monitor.History()
	if history == nil {
		history = []*models.Alert{}
	}
	jsonOK(w, history)
}

// Current returns the most recently fired alert of the current day, or null.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.monitor.Current())
}

// Stream serves the live SSE feed of level readings and fired alerts. The
// connection is closed after the configured max duration; clients reconnect.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		jsonError(w, http.StatusServiceUnavailable, errCodeInternalError, "Live stream unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sse := newSSEStream(w, flusher)
	sse.Retry(3000)

	events, cancel := h.hub.Subscribe()
	defer cancel()

	keepalive := time.NewTicker(h.stream.Keepalive)
	defer keepalive.Stop()
	deadline := time.NewTimer(h.stream.MaxDuration)
	defer deadline.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			sse.Comment("stream deadline reached, reconnect")
			return
		case <-keepalive.C:
			if err := sse.Comment("keepalive"); err != nil {
				return
			}
		case ev := <-events:
			data, ok := marshalEvent(ev)
			if !ok {
				continue
			}
			if err := sse.Event(ev.Type, data); err != nil {
				return
			}
		}
	}
}
