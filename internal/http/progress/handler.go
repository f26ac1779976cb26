package progress

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

type Handler struct {
	svc *progress.Service
}

func NewHandler(svc *progress.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts under /projects/{id}/progress.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.list)
	r.Get("/latest", h.latest)
}

type submitRequest struct {
	Date           string        `json:"date"`
	Stage          project.Stage `json:"stage"`
	IncrementalPct float64       `json:"incremental_pct"`
	WorkingHours   float64       `json:"working_hours"`
	Lat            *float64      `json:"lat,omitempty"`
	Lon            *float64      `json:"lon,omitempty"`
	EvidenceRefs   []string      `json:"evidence_refs,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	entry, err := h.svc.SubmitDaily(r.Context(), principal, progress.SubmitParams{
		ProjectID:      projectID,
		Date:           date,
		Stage:          req.Stage,
		IncrementalPct: req.IncrementalPct,
		WorkingHours:   req.WorkingHours,
		Lat:            req.Lat,
		Lon:            req.Lon,
		EvidenceRefs:   req.EvidenceRefs,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(entry)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	filter := progress.ListFilter{}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = &t
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = &t
		}
	}

	entries, err := h.svc.List(r.Context(), principal, projectID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(entries)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	entry, err := h.svc.Latest(r.Context(), principal, projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(entry)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progress.ErrInvalidInput), errors.Is(err, project.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, project.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, project.ErrNotFound):
		http.Error(w, "project not found", http.StatusNotFound)
	case errors.Is(err, progress.ErrNoEntries):
		http.Error(w, "no progress entries recorded", http.StatusNotFound)
	case errors.Is(err, progress.ErrDateRecorded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, progress.ErrEvidenceRequired):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
