package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// fakeLocationRepo is an in-memory LocationRepository.
type fakeLocationRepo struct {
	locs map[string]*models.Location
}

func newFakeRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locs: make(map[string]*models.Location)}
}

func (f *fakeLocationRepo) Create(ctx context.Context, loc *models.Location) error {
	cp := *loc
	f.locs[loc.ID] = &cp
	return nil
}

func (f *fakeLocationRepo) GetByID(ctx context.Context, id string) (*models.Location, error) {
	loc, ok := f.locs[id]
	if !ok {
		return nil, nil
	}
	cp := *loc
	return &cp, nil
}

func (f *fakeLocationRepo) List(ctx context.Context) ([]*models.Location, error) {
	var out []*models.Location
	for _, loc := range f.locs {
		cp := *loc
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeLocationRepo) Chosen(ctx context.Context) (*models.Location, error) {
	for _, loc := range f.locs {
		if loc.Chosen {
			cp := *loc
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLocationRepo) SetChosen(ctx context.Context, id string) error {
	if _, ok := f.locs[id]; !ok {
		return fmt.Errorf("location not found: %s", id)
	}
	for _, loc := range f.locs {
		loc.Chosen = loc.ID == id
	}
	return nil
}

func (f *fakeLocationRepo) UpdateThreshold(ctx context.Context, id string, threshold float64) error {
	loc, ok := f.locs[id]
	if !ok {
		return fmt.Errorf("location not found: %s", id)
	}
	loc.Threshold = threshold
	return nil
}

func (f *fakeLocationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.locs[id]; !ok {
		return fmt.Errorf("location not found: %s", id)
	}
	delete(f.locs, id)
	return nil
}

// fakeSwitcher records room switches.
type fakeSwitcher struct {
	rooms []string
}

func (f *fakeSwitcher) SetRoom(ctx context.Context, room string) error {
	f.rooms = append(f.rooms, room)
	return nil
}

func setupHandler(t *testing.T) (*Handler, *fakeLocationRepo, *fakeSwitcher, *chi.Mux) {
	t.Helper()

	repo := newFakeRepo()
	switcher := &fakeSwitcher{}
	h := NewHandler(repo, switcher, 5*time.Second)

	r := chi.NewRouter()
	r.Get("/locations", h.List)
	r.Post("/locations", h.Create)
	r.Get("/locations/{id}", h.GetByID)
	r.Delete("/locations/{id}", h.Delete)
	r.Put("/locations/{id}/choose", h.Choose)
	r.Put("/locations/{id}/threshold", h.SetThreshold)

	return h, repo, switcher, r
}

func seedLocation(repo *fakeLocationRepo, id, name string, chosen bool) *models.Location {
	loc := models.NewLocation(name)
	loc.ID = id
	loc.Chosen = chosen
	repo.locs[id] = loc
	return loc
}

func TestHandler_Create(t *testing.T) {
	_, repo, _, router := setupHandler(t)

	body := `{"name": "Library", "threshold": 65}`
	req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.Location `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Name != "Library" || resp.Data.Threshold != 65 {
		t.Errorf("created = %+v", resp.Data)
	}
	if resp.Data.ID == "" {
		t.Error("created location should have an ID")
	}
	if len(repo.locs) != 1 {
		t.Error("location should be stored")
	}
}

func TestHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name": ""}`},
		{"threshold too high", `{"name": "Library", "threshold": 500}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, router := setupHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandler_Create_DuplicateName(t *testing.T) {
	_, repo, _, router := setupHandler(t)
	seedLocation(repo, "loc-1", "Library", true)

	req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(`{"name": "Library"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandler_Choose(t *testing.T) {
	_, repo, switcher, router := setupHandler(t)
	seedLocation(repo, "loc-1", "Main Room", true)
	seedLocation(repo, "loc-2", "Library", false)

	req := httptest.NewRequest(http.MethodPut, "/locations/loc-2/choose", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !repo.locs["loc-2"].Chosen || repo.locs["loc-1"].Chosen {
		t.Error("choose should move the chosen flag")
	}
	if len(switcher.rooms) != 1 || switcher.rooms[0] != "Library" {
		t.Errorf("switcher rooms = %v, want [Library]", switcher.rooms)
	}
}

func TestHandler_Choose_NotFound(t *testing.T) {
	_, _, _, router := setupHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/locations/missing/choose", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_SetThreshold(t *testing.T) {
	_, repo, _, router := setupHandler(t)
	seedLocation(repo, "loc-1", "Main Room", true)

	req := httptest.NewRequest(http.MethodPut, "/locations/loc-1/threshold",
		strings.NewReader(`{"threshold": 82}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := repo.locs["loc-1"].Threshold; got != 82 {
		t.Errorf("threshold = %v, want 82", got)
	}
}

func TestHandler_SetThreshold_OutOfRange(t *testing.T) {
	_, repo, _, router := setupHandler(t)
	seedLocation(repo, "loc-1", "Main Room", true)

	req := httptest.NewRequest(http.MethodPut, "/locations/loc-1/threshold",
		strings.NewReader(`{"threshold": 200}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := repo.locs["loc-1"].Threshold; got != models.DefaultThreshold {
		t.Errorf("threshold = %v, should be unchanged", got)
	}
}

func TestHandler_Delete(t *testing.T) {
	_, repo, _, router := setupHandler(t)
	seedLocation(repo, "loc-1", "Main Room", false)

	req := httptest.NewRequest(http.MethodDelete, "/locations/loc-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(repo.locs) != 0 {
		t.Error("location should be deleted")
	}
}

func TestHandler_List(t *testing.T) {
	_, repo, _, router := setupHandler(t)

	// Empty list encodes as [], not null.
	req := httptest.NewRequest(http.MethodGet, "/locations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("empty list body = %s, want data []", rec.Body.String())
	}

	seedLocation(repo, "loc-1", "Main Room", true)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/locations", nil))

	var resp struct {
		Data []models.Location `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("list length = %d, want 1", len(resp.Data))
	}
}
