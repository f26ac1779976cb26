package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=project
type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	ContractorID    uuid.UUID
	HomeownerID     uuid.UUID
	Name            string
	TotalBudget     decimal.Decimal
	SiteLat         *float64
	SiteLon         *float64
	GeofenceRadiusM float64
	StartDate       time.Time
	EndDate         *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Project, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if !params.TotalBudget.IsPositive() {
		return nil, fmt.Errorf("%w: total budget must be positive", ErrInvalidInput)
	}

	if (params.SiteLat == nil) != (params.SiteLon == nil) {
		return nil, fmt.Errorf("%w: site location needs both latitude and longitude", ErrInvalidInput)
	}

	p := &Project{
		ContractorID:    params.ContractorID,
		HomeownerID:     params.HomeownerID,
		Name:            params.Name,
		TotalBudget:     params.TotalBudget,
		SiteLat:         params.SiteLat,
		SiteLon:         params.SiteLon,
		GeofenceRadiusM: params.GeofenceRadiusM,
		StartDate:       params.StartDate,
		EndDate:         params.EndDate,
		Status:          StatusActive,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Get returns the project if the principal is a party to it.
func (s *Service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.AccessibleBy(principal.UserID) {
		return nil, ErrForbidden
	}

	return p, nil
}

func (s *Service) List(ctx context.Context, principal auth.Principal) ([]*Project, error) {
	return s.repo.ListProjectsForUser(ctx, principal.UserID)
}
