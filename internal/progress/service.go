package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/evidence"
	"github.com/dmcalde/sitework/internal/notify"
	"github.com/dmcalde/sitework/internal/project"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=progress
type Repository interface {
	LatestEntry(ctx context.Context, projectID uuid.UUID) (*Entry, error)
	ListEntries(ctx context.Context, projectID uuid.UUID, filter ListFilter) ([]*Entry, error)

	BeginSubmit(ctx context.Context, projectID uuid.UUID) (SubmitTx, error)
}

// SubmitTx is the transactional scope for one daily submission. The store
// serializes concurrent submissions per project, so the duplicate-date check
// and the cumulative fold are race-free between Begin and Commit.
type SubmitTx interface {
	Project(ctx context.Context) (*project.Project, error)
	HasEntryOn(ctx context.Context, date time.Time) (bool, error)
	LatestEntry(ctx context.Context) (*Entry, error)
	CreateEntry(ctx context.Context, e *Entry) error
	Commit() error
	Rollback() error
}

// ProjectReader supplies project state for access checks on the read path.
// Satisfied by the project repository.
type ProjectReader interface {
	GetProject(ctx context.Context, id uuid.UUID) (*project.Project, error)
}

type Service struct {
	repo     Repository
	projects ProjectReader
	notifier notify.Notifier
	evidence evidence.Checker
}

func NewService(repo Repository, projects ProjectReader, notifier notify.Notifier, checker evidence.Checker) *Service {
	return &Service{repo: repo, projects: projects, notifier: notifier, evidence: checker}
}

type SubmitParams struct {
	ProjectID      uuid.UUID
	Date           time.Time
	Stage          project.Stage
	IncrementalPct float64
	WorkingHours   float64
	Lat            *float64
	Lon            *float64
	EvidenceRefs   []string
	Notes          string
}

type ListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

func (p SubmitParams) validate() error {
	if !p.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, p.Stage)
	}

	if p.IncrementalPct < 0 || p.IncrementalPct > 100 {
		return fmt.Errorf("%w: incremental percentage must be between 0 and 100", ErrInvalidInput)
	}

	if p.WorkingHours < 0 || p.WorkingHours > 24 {
		return fmt.Errorf("%w: working hours must be between 0 and 24", ErrInvalidInput)
	}

	if p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if (p.Lat == nil) != (p.Lon == nil) {
		return fmt.Errorf("%w: location needs both latitude and longitude", ErrInvalidInput)
	}

	if p.IncrementalPct >= EvidenceThresholdPct && len(p.EvidenceRefs) == 0 {
		return fmt.Errorf("%w: increments of %.0f%% or more need at least one evidence reference",
			ErrEvidenceRequired, EvidenceThresholdPct)
	}

	return nil
}

// SubmitDaily records one day of progress. The duplicate-date check, the
// cumulative fold and the insert all happen inside a single serialized
// transaction; geofence verification only flags the entry and never blocks.
func (s *Service) SubmitDaily(ctx context.Context, principal auth.Principal, params SubmitParams) (*Entry, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	date := truncateToDay(params.Date)
	if date.After(truncateToDay(time.Now().UTC())) {
		return nil, fmt.Errorf("%w: date cannot be in the future", ErrInvalidInput)
	}

	tx, err := s.repo.BeginSubmit(ctx, params.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback()

	proj, err := tx.Project(ctx)
	if err != nil {
		return nil, err
	}

	if proj.ContractorID != principal.UserID {
		return nil, project.ErrForbidden
	}

	exists, err := tx.HasEntryOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("checking date: %w", err)
	}

	if exists {
		return nil, ErrDateRecorded
	}

	var previous float64

	latest, err := tx.LatestEntry(ctx)
	if err != nil && err != ErrNoEntries {
		return nil, fmt.Errorf("reading latest entry: %w", err)
	}

	if latest != nil {
		if date.Before(latest.Date) {
			return nil, fmt.Errorf("%w: date precedes the latest recorded entry", ErrInvalidInput)
		}

		previous = latest.CumulativePct
	}

	cumulative := min(100, previous+params.IncrementalPct)
	if cumulative < previous {
		return nil, ErrRegression
	}

	entry := &Entry{
		ProjectID:      params.ProjectID,
		ContractorID:   principal.UserID,
		Date:           date,
		Stage:          params.Stage,
		IncrementalPct: params.IncrementalPct,
		CumulativePct:  cumulative,
		WorkingHours:   params.WorkingHours,
		Lat:            params.Lat,
		Lon:            params.Lon,
		EvidenceRefs:   params.EvidenceRefs,
		Notes:          params.Notes,
	}

	if entry.HasLocation() {
		if fence, ok := proj.Fence(); ok {
			entry.LocationVerified = fence.Contains(*entry.Lat, *entry.Lon)
		}
	}

	if err := tx.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("creating entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submit: %w", err)
	}

	notify.Dispatch(ctx, s.notifier, notify.Event{
		Type:      notify.EventProgressRecorded,
		ProjectID: entry.ProjectID,
		Details: map[string]any{
			"date":              entry.Date.Format(time.DateOnly),
			"stage":             entry.Stage,
			"incremental_pct":   entry.IncrementalPct,
			"cumulative_pct":    entry.CumulativePct,
			"location_verified": entry.LocationVerified,
		},
	})

	if s.evidence != nil && len(entry.EvidenceRefs) > 0 {
		go evidence.Audit(context.WithoutCancel(ctx), s.evidence, entry.ProjectID.String(), entry.EvidenceRefs)
	}

	return entry, nil
}

// Latest returns the most recent entry by date.
func (s *Service) Latest(ctx context.Context, principal auth.Principal, projectID uuid.UUID) (*Entry, error) {
	if err := s.checkAccess(ctx, principal, projectID); err != nil {
		return nil, err
	}

	return s.repo.LatestEntry(ctx, projectID)
}

func (s *Service) List(ctx context.Context, principal auth.Principal, projectID uuid.UUID, filter ListFilter) ([]*Entry, error) {
	if err := s.checkAccess(ctx, principal, projectID); err != nil {
		return nil, err
	}

	return s.repo.ListEntries(ctx, projectID, filter)
}

func (s *Service) checkAccess(ctx context.Context, principal auth.Principal, projectID uuid.UUID) error {
	proj, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	if !proj.AccessibleBy(principal.UserID) {
		return project.ErrForbidden
	}

	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
