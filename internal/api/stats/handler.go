// Package stats implements the analytics endpoints: daily and weekly
// summaries, rolling scalars, and view-state navigation.
package stats

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/view"
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
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeInternalError = "INTERNAL_ERROR"
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

// Handler serves analytics requests backed by the view coordinator.
type Handler struct {
	coordinator *view.Coordinator
	timeout     time.Duration
}

// NewHandler creates a stats handler.
func NewHandler(coordinator *view.Coordinator, timeout time.Duration) *Handler {
	return &Handler{coordinator: coordinator, timeout: timeout}
}

// applySelectors moves the coordinator to the room/date/offset named in the
// query, leaving absent selectors untouched.
func (h *Handler) applySelectors(ctx context.Context, r *http.Request) error {
	q := r.URL.Query()

	if room := q.Get("room"); room != "" && room != h.coordinator.State().SelectedRoom {
		if err := h.coordinator.SetRoom(ctx, room); err != nil {
			return err
		}
	}
	if raw := q.Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return errBadDate
		}
		if err := h.coordinator.SetDate(ctx, date); err != nil {
			return err
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return errBadOffset
		}
		if err := h.coordinator.SetWeekOffset(ctx, offset); err != nil {
			return err
		}
	}
	return nil
}

var (
	errBadDate   = &paramError{"date must be formatted as 2006-01-02"}
	errBadOffset = &paramError{"offset must be an integer"}
)

type paramError struct{ msg string }

func (e *paramError) Error() string { return e.msg }

// Daily returns the hourly summary for the selected date and room.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.applySelectors(ctx, r); err != nil {
		h.selectorError(w, err)
		return
	}

	result, err := h.coordinator.Daily(ctx)
	if err != nil {
		log.Printf("[stats] daily: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to compute daily summary")
		return
	}

	state := h.coordinator.State()
	jsonOK(w, map[string]any{
		"room":   state.SelectedRoom,
		"date":   state.SelectedDate.Format("2006-01-02"),
		"points": result.Points,
	})
}

// Weekly returns the weekday summary and quiet-time estimate for the
// selected week.
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.applySelectors(ctx, r); err != nil {
		h.selectorError(w, err)
		return
	}

	result, err := h.coordinator.Weekly(ctx)
	if err != nil {
		log.Printf("[stats] weekly: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to compute weekly summary")
		return
	}

	state := h.coordinator.State()
	jsonOK(w, map[string]any{
		"room":       state.SelectedRoom,
		"offset":     state.WeekOffset,
		"points":     result.Points,
		"quiet_time": result.QuietTime,
	})
}

// Stats returns the rolling daily-peak and weekly-average scalars.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.coordinator.Stats())
}

// ViewState returns the current selectors.
func (h *Handler) ViewState(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.coordinator.State())
}

type navigateRequest struct {
	Action string `json:"action"` // set_tab | set_date | select_weekday | shift_week
	Tab    string `json:"tab,omitempty"`
	Date   string `json:"date,omitempty"` // 2006-01-02
	Day    string `json:"day,omitempty"`  // weekday name
	Delta  int    `json:"delta,omitempty"`
}

// Navigate applies one view-state transition and returns the new selectors.
// Out-of-range week shifts leave the state unchanged.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var err error
	switch req.Action {
	case "set_tab":
		err = h.coordinator.SetTab(ctx, view.Tab(req.Tab))
	case "set_date":
		var date time.Time
		if req.Date != "" {
			date, err = time.Parse("2006-01-02", req.Date)
			if err != nil {
				jsonError(w, http.StatusBadRequest, errCodeBadRequest, errBadDate.Error())
				return
			}
		}
		err = h.coordinator.SetDate(ctx, date)
	case "select_weekday":
		err = h.coordinator.SelectWeekday(ctx, req.Day)
	case "shift_week":
		err = h.coordinator.ShiftWeek(ctx, req.Delta)
	default:
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Unknown action")
		return
	}
	if err != nil {
		log.Printf("[stats] navigate %s: %v", req.Action, err)
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	jsonOK(w, h.coordinator.State())
}

func (h *Handler) selectorError(w http.ResponseWriter, err error) {
	if pe, ok := err.(*paramError); ok {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, pe.msg)
		return
	}
	log.Printf("[stats] selectors: %v", err)
	jsonError(w, http.StatusInternalServerError, errCodeInternalError, "Failed to apply selectors")
}
