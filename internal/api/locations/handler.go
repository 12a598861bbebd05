// Package locations implements the location directory endpoints: the rooms
// the service knows about, their thresholds, and which one is chosen.
package locations

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quiet-rooms/noisewatch/internal/models"
	"github.com/quiet-rooms/noisewatch/internal/storage"
)

// Response helpers (same pattern as samples)
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
	errCodeConflict         = "CONFLICT"
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

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RoomSwitcher is told when the chosen room changes so dependent views can
// recompute. The view coordinator implements it.
type RoomSwitcher interface {
	SetRoom(ctx context.Context, room string) error
}

// Handler serves location directory requests.
type Handler struct {
	repo     storage.LocationRepository
	switcher RoomSwitcher
	timeout  time.Duration
}

// NewHandler creates a location handler. switcher may be nil.
func NewHandler(repo storage.LocationRepository, switcher RoomSwitcher, timeout time.Duration) *Handler {
	return &Handler{repo: repo, switcher: switcher, timeout: timeout}
}

type createRequest struct {
	Name      string   `json:"name"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type thresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

// List returns all locations, chosen one included.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	locs, err := h.repo.List(ctx)
	if err != nil {
		log.Printf("[locations] list: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to list locations")
		return
	}
	if locs == nil {
		locs = []*models.Location{}
	}
	jsonOK(w, locs)
}

// Create adds a new location. Threshold defaults when omitted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid request body")
		return
	}

	if err := ValidateName(req.Name); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	loc := models.NewLocation(req.Name)
	loc.ID = uuid.New().String()
	if req.Threshold != nil {
		loc.Threshold = *req.Threshold
	}
	if err := loc.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	existing, err := h.repo.List(ctx)
	if err != nil {
		log.Printf("[locations] create lookup: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to create location")
		return
	}
	for _, e := range existing {
		if e.Name == loc.Name {
			jsonError(w, http.StatusConflict, errCodeConflict, "A location with that name already exists")
			return
		}
	}

	if err := h.repo.Create(ctx, loc); err != nil {
		log.Printf("[locations] create: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to create location")
		return
	}
	jsonCreated(w, loc)
}

// GetByID returns a single location.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	loc, err := h.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("[locations] get %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to fetch location")
		return
	}
	if loc == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Location not found")
		return
	}
	jsonOK(w, loc)
}

// Choose marks a location as the watched room. The monitor picks up the new
// threshold on its next poll tick; the view coordinator switches immediately.
func (h *Handler) Choose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	loc, err := h.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("[locations] choose lookup %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to choose location")
		return
	}
	if loc == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Location not found")
		return
	}

	if err := h.repo.SetChosen(ctx, id); err != nil {
		log.Printf("[locations] choose %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to choose location")
		return
	}

	if h.switcher != nil {
		if err := h.switcher.SetRoom(ctx, loc.Name); err != nil {
			// The choice is persisted; views catch up on their next read.
			log.Printf("[locations] switch views to %s: %v", loc.Name, err)
		}
	}

	loc.Chosen = true
	jsonOK(w, loc)
}

// SetThreshold updates a location's alert threshold. Alerts already in the
// history keep the threshold they fired against.
func (h *Handler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid request body")
		return
	}
	if err := models.ValidateThreshold(req.Threshold); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	loc, err := h.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("[locations] threshold lookup %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to update threshold")
		return
	}
	if loc == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Location not found")
		return
	}

	if err := h.repo.UpdateThreshold(ctx, id, req.Threshold); err != nil {
		log.Printf("[locations] threshold %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to update threshold")
		return
	}

	loc.Threshold = req.Threshold
	jsonOK(w, loc)
}

// Delete removes a location. Deleting the chosen location promotes another
// one if any remain.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	loc, err := h.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("[locations] delete lookup %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to delete location")
		return
	}
	if loc == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Location not found")
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		log.Printf("[locations] delete %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to delete location")
		return
	}

	if loc.Chosen && h.switcher != nil {
		if promoted, err := h.repo.Chosen(ctx); err == nil && promoted != nil {
			if err := h.switcher.SetRoom(ctx, promoted.Name); err != nil {
				log.Printf("[locations] switch views to %s: %v", promoted.Name, err)
			}
		}
	}

	jsonNoContent(w)
}
