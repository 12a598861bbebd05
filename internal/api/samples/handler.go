// Package samples implements the device ingest endpoints for sound-level
// measurements.
package samples

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quiet-rooms/noisewatch/internal/metrics"
	"github.com/quiet-rooms/noisewatch/internal/models"
	"github.com/quiet-rooms/noisewatch/internal/storage"
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

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeInternalError    = "INTERNAL_ERROR"
)

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

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

// Invalidator drops memoized summaries when new data lands. The view
// coordinator implements it.
type Invalidator interface {
	Invalidate()
}

// Handler serves sample ingest and lookup requests.
type Handler struct {
	repo        storage.SampleRepository
	invalidator Invalidator
	timeout     time.Duration
}

// NewHandler creates a sample handler. invalidator may be nil.
func NewHandler(repo storage.SampleRepository, invalidator Invalidator, timeout time.Duration) *Handler {
	return &Handler{repo: repo, invalidator: invalidator, timeout: timeout}
}

type ingestRequest struct {
	DeviceID    string  `json:"device_id"`
	Room        string  `json:"room"`
	SoundLevel  float64 `json:"sound_level"`
	MeasuredAt  string  `json:"measured_at"` // RFC3339
	Description string  `json:"description,omitempty"`
}

// Ingest accepts one measurement from a device.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.SamplesRejected.Inc()
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid request body")
		return
	}

	measuredAt, err := time.Parse(time.RFC3339, req.MeasuredAt)
	if err != nil {
		metrics.SamplesRejected.Inc()
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "measured_at must be an RFC3339 timestamp")
		return
	}

	sample := &models.Sample{
		ID:          uuid.New().String(),
		DeviceID:    req.DeviceID,
		Room:        req.Room,
		SoundLevel:  req.SoundLevel,
		MeasuredAt:  measuredAt,
		Description: req.Description,
	}
	if err := sample.Validate(); err != nil {
		metrics.SamplesRejected.Inc()
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.repo.Insert(ctx, sample); err != nil {
		log.Printf("[samples] insert: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to store sample")
		return
	}

	metrics.SamplesIngested.WithLabelValues(sample.Room).Inc()
	if h.invalidator != nil {
		h.invalidator.Invalidate()
	}

	jsonCreated(w, sample)
}

// Latest returns the most recent sample for a room.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "room query parameter is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sample, err := h.repo.Latest(ctx, room)
	if err != nil {
		log.Printf("[samples] latest %s: %v", room, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to fetch latest sample")
		return
	}
	if sample == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "No samples for room")
		return
	}
	jsonOK(w, sample)
}
