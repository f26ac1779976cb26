package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

type entryResponse struct {
	ID               uuid.UUID     `json:"id"`
	ProjectID        uuid.UUID     `json:"project_id"`
	Date             string        `json:"date"`
	Stage            project.Stage `json:"stage"`
	IncrementalPct   float64       `json:"incremental_pct"`
	CumulativePct    float64       `json:"cumulative_pct"`
	WorkingHours     float64       `json:"working_hours"`
	Lat              *float64      `json:"lat,omitempty"`
	Lon              *float64      `json:"lon,omitempty"`
	LocationVerified bool          `json:"location_verified"`
	EvidenceRefs     []string      `json:"evidence_refs,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

func toResponse(e *progress.Entry) entryResponse {
	return entryResponse{
		ID:               e.ID,
		ProjectID:        e.ProjectID,
		Date:             e.Date.Format(time.DateOnly),
		Stage:            e.Stage,
		IncrementalPct:   e.IncrementalPct,
		CumulativePct:    e.CumulativePct,
		WorkingHours:     e.WorkingHours,
		Lat:              e.Lat,
		Lon:              e.Lon,
		LocationVerified: e.LocationVerified,
		EvidenceRefs:     e.EvidenceRefs,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt,
	}
}

func toResponseList(entries []*progress.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toResponse(e)
	}

	return resp
}
