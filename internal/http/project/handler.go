package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/payment"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

type Handler struct {
	svc         *project.Service
	paymentSvc  *payment.Service
	progressSvc *progress.Service
}

func NewHandler(svc *project.Service, paymentSvc *payment.Service, progressSvc *progress.Service) *Handler {
	return &Handler{svc: svc, paymentSvc: paymentSvc, progressSvc: progressSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type createProjectRequest struct {
	HomeownerID     uuid.UUID       `json:"homeowner_id"`
	Name            string          `json:"name"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	SiteLat         *float64        `json:"site_lat,omitempty"`
	SiteLon         *float64        `json:"site_lon,omitempty"`
	GeofenceRadiusM float64         `json:"geofence_radius_m,omitempty"`
	StartDate       string          `json:"start_date"`
	EndDate         *string         `json:"end_date,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date", http.StatusBadRequest)
		return
	}

	var endDate *time.Time

	if req.EndDate != nil {
		t, err := time.Parse(time.DateOnly, *req.EndDate)
		if err != nil {
			http.Error(w, "invalid end_date", http.StatusBadRequest)
			return
		}

		endDate = &t
	}

	p, err := h.svc.Create(r.Context(), project.CreateParams{
		ContractorID:    principal.UserID,
		HomeownerID:     req.HomeownerID,
		Name:            req.Name,
		TotalBudget:     req.TotalBudget,
		SiteLat:         req.SiteLat,
		SiteLon:         req.SiteLon,
		GeofenceRadiusM: req.GeofenceRadiusM,
		StartDate:       startDate,
		EndDate:         endDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projects, err := h.svc.List(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(projects)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Get(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toDetailResponse(p)

	// The detail view carries the derived budget position and the latest
	// recorded progress; failures here degrade the payload, not the request.
	if snapshot, err := h.paymentSvc.Budget(r.Context(), principal, id); err == nil {
		resp.Budget = toBudgetResponse(snapshot)
	} else {
		slog.Warn("failed to load budget snapshot", "project_id", id, "error", err)
	}

	latest, err := h.progressSvc.Latest(r.Context(), principal, id)
	switch {
	case err == nil:
		resp.LatestProgress = toProgressResponse(latest)
	case errors.Is(err, progress.ErrNoEntries):
	default:
		slog.Warn("failed to load latest progress", "project_id", id, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, project.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, project.ErrNotFound):
		http.Error(w, "project not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
