package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/geo"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrForbidden    = errors.New("project not accessible by user")
	ErrInvalidInput = errors.New("invalid project input")
)

// Stage is a fixed construction phase against which progress and payments
// are tracked.
type Stage string

const (
	StageFoundation Stage = "foundation"
	StageStructure  Stage = "structure"
	StageBrickwork  Stage = "brickwork"
	StageRoofing    Stage = "roofing"
	StageElectrical Stage = "electrical"
	StagePlumbing   Stage = "plumbing"
	StageFinishing  Stage = "finishing"
)

// Stages lists all stages in construction order.
var Stages = []Stage{
	StageFoundation,
	StageStructure,
	StageBrickwork,
	StageRoofing,
	StageElectrical,
	StagePlumbing,
	StageFinishing,
}

func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}

	return false
}

// Status represents the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusOnHold    Status = "on_hold"
)

// Project is a single construction engagement between a contractor and a
// homeowner. TotalBudget is immutable after creation.
type Project struct {
	ID              uuid.UUID
	ContractorID    uuid.UUID
	HomeownerID     uuid.UUID
	Name            string
	TotalBudget     decimal.Decimal
	SiteLat         *float64
	SiteLon         *float64
	GeofenceRadiusM float64
	StartDate       time.Time
	EndDate         *time.Time
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// AccessibleBy reports whether the given user is a party to the project.
func (p *Project) AccessibleBy(userID uuid.UUID) bool {
	return p.ContractorID == userID || p.HomeownerID == userID
}

// Fence returns the project's geofence, or false when no site location is
// registered.
func (p *Project) Fence() (geo.Fence, bool) {
	if p.SiteLat == nil || p.SiteLon == nil {
		return geo.Fence{}, false
	}

	return geo.Fence{
		Lat:          *p.SiteLat,
		Lon:          *p.SiteLon,
		RadiusMeters: p.GeofenceRadiusM,
	}, true
}
