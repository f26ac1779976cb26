package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/payment"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

type projectResponse struct {
	ID              uuid.UUID       `json:"id"`
	ContractorID    uuid.UUID       `json:"contractor_id"`
	HomeownerID     uuid.UUID       `json:"homeowner_id"`
	Name            string          `json:"name"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	SiteLat         *float64        `json:"site_lat,omitempty"`
	SiteLon         *float64        `json:"site_lon,omitempty"`
	GeofenceRadiusM float64         `json:"geofence_radius_m,omitempty"`
	StartDate       string          `json:"start_date"`
	EndDate         *string         `json:"end_date,omitempty"`
	Status          project.Status  `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// projectDetailResponse enriches the base project with its derived budget
// position and latest recorded progress.
type projectDetailResponse struct {
	projectResponse
	Budget         *budgetResponse   `json:"budget,omitempty"`
	LatestProgress *progressResponse `json:"latest_progress,omitempty"`
}

type budgetResponse struct {
	TotalBudget  decimal.Decimal `json:"total_budget"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	Remaining    decimal.Decimal `json:"remaining"`
}

type progressResponse struct {
	Date             string        `json:"date"`
	Stage            project.Stage `json:"stage"`
	CumulativePct    float64       `json:"cumulative_pct"`
	LocationVerified bool          `json:"location_verified"`
}

func toDetailResponse(p *project.Project) projectDetailResponse {
	return projectDetailResponse{projectResponse: toResponse(p)}
}

func toBudgetResponse(s *payment.BudgetSnapshot) *budgetResponse {
	return &budgetResponse{
		TotalBudget:  s.TotalBudget,
		TotalPaid:    s.TotalPaid,
		TotalPending: s.TotalPending,
		Remaining:    s.Remaining,
	}
}

func toProgressResponse(e *progress.Entry) *progressResponse {
	return &progressResponse{
		Date:             e.Date.Format(time.DateOnly),
		Stage:            e.Stage,
		CumulativePct:    e.CumulativePct,
		LocationVerified: e.LocationVerified,
	}
}

func toResponse(p *project.Project) projectResponse {
	resp := projectResponse{
		ID:              p.ID,
		ContractorID:    p.ContractorID,
		HomeownerID:     p.HomeownerID,
		Name:            p.Name,
		TotalBudget:     p.TotalBudget,
		SiteLat:         p.SiteLat,
		SiteLon:         p.SiteLon,
		GeofenceRadiusM: p.GeofenceRadiusM,
		StartDate:       p.StartDate.Format(time.DateOnly),
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}

	if p.EndDate != nil {
		end := p.EndDate.Format(time.DateOnly)
		resp.EndDate = &end
	}

	return resp
}

func toResponseList(projects []*project.Project) []projectResponse {
	resp := make([]projectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toResponse(p)
	}

	return resp
}
