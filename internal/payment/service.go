package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/notify"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	ListRequests(ctx context.Context, projectID uuid.UUID, filter ListFilter) ([]*Request, error)
	BudgetTotals(ctx context.Context, projectID uuid.UUID) (paid, pending decimal.Decimal, err error)

	BeginSubmit(ctx context.Context, projectID uuid.UUID) (SubmitTx, error)
	BeginTransition(ctx context.Context, requestID uuid.UUID) (TransitionTx, error)
}

// SubmitTx is the transactional scope for one payment submission. The store
// serializes concurrent submissions per project, so the outstanding-stage
// check and the budget ceiling check are race-free between Begin and Commit.
type SubmitTx interface {
	Project(ctx context.Context) (*project.Project, error)
	HasOutstanding(ctx context.Context, stage project.Stage) (bool, error)
	Totals(ctx context.Context) (paid, pending decimal.Decimal, err error)
	CreateRequest(ctx context.Context, r *Request) error
	Commit() error
	Rollback() error
}

// TransitionTx locks one request row for a state transition.
type TransitionTx interface {
	Request(ctx context.Context) (*Request, error)
	Project(ctx context.Context) (*project.Project, error)
	UpdateRequest(ctx context.Context, r *Request) error
	Commit() error
	Rollback() error
}

// ProjectReader supplies project state for access checks on the read path.
type ProjectReader interface {
	GetProject(ctx context.Context, id uuid.UUID) (*project.Project, error)
}

// ProgressReader supplies the latest ledger position so a payment claim can
// be correlated against recorded progress.
type ProgressReader interface {
	LatestEntry(ctx context.Context, projectID uuid.UUID) (*progress.Entry, error)
}

type Service struct {
	repo     Repository
	projects ProjectReader
	ledger   ProgressReader
	notifier notify.Notifier
}

func NewService(repo Repository, projects ProjectReader, ledger ProgressReader, notifier notify.Notifier) *Service {
	return &Service{repo: repo, projects: projects, ledger: ledger, notifier: notifier}
}

type SubmitParams struct {
	ProjectID     uuid.UUID
	Stage         project.Stage
	Amount        decimal.Decimal
	CompletionPct float64
	Description   string
}

type ListFilter struct {
	Status *Status
	Stage  *project.Stage
}

func (p SubmitParams) validate() error {
	if !p.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, p.Stage)
	}

	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	if p.CompletionPct < 0 || p.CompletionPct > 100 {
		return fmt.Errorf("%w: completion percentage must be between 0 and 100", ErrInvalidInput)
	}

	return nil
}

// Submit files a new stage payment request. The outstanding-stage check, the
// budget ceiling check and the insert all happen inside a single serialized
// transaction per project.
func (s *Service) Submit(ctx context.Context, principal auth.Principal, params SubmitParams) (*Request, *BudgetSnapshot, error) {
	if err := params.validate(); err != nil {
		return nil, nil, err
	}

	tx, err := s.repo.BeginSubmit(ctx, params.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback()

	proj, err := tx.Project(ctx)
	if err != nil {
		return nil, nil, err
	}

	if proj.ContractorID != principal.UserID {
		return nil, nil, project.ErrForbidden
	}

	outstanding, err := tx.HasOutstanding(ctx, params.Stage)
	if err != nil {
		return nil, nil, fmt.Errorf("checking outstanding requests: %w", err)
	}

	if outstanding {
		return nil, nil, ErrStageOutstanding
	}

	paid, pending, err := tx.Totals(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reading budget totals: %w", err)
	}

	snapshot := newSnapshot(proj.TotalBudget, paid, pending)
	if params.Amount.GreaterThan(snapshot.Remaining) {
		return nil, nil, fmt.Errorf("%w: requested %s, remaining %s",
			ErrBudgetExceeded, params.Amount, snapshot.Remaining)
	}

	pctOfTotal, _ := params.Amount.Div(proj.TotalBudget).Mul(decimal.NewFromInt(100)).Round(2).Float64()

	req := &Request{
		ProjectID:       params.ProjectID,
		ContractorID:    principal.UserID,
		Stage:           params.Stage,
		RequestedAmount: params.Amount,
		PctOfTotal:      pctOfTotal,
		CompletionPct:   params.CompletionPct,
		Description:     params.Description,
		Status:          StatusPending,
	}

	if err := tx.CreateRequest(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit submit: %w", err)
	}

	recorded := s.recordedProgress(ctx, req.ProjectID)
	if req.CompletionPct > recorded {
		slog.Warn("payment claim exceeds recorded progress",
			"project_id", req.ProjectID,
			"stage", req.Stage,
			"claimed_pct", req.CompletionPct,
			"recorded_pct", recorded,
		)
	}

	// Pending amounts count against the budget from this point on.
	snapshot.TotalPending = snapshot.TotalPending.Add(req.RequestedAmount)
	snapshot.Remaining = snapshot.Remaining.Sub(req.RequestedAmount)

	notify.Dispatch(ctx, s.notifier, notify.Event{
		Type:      notify.EventPaymentRequested,
		ProjectID: req.ProjectID,
		Details: map[string]any{
			"request_id":   req.ID,
			"stage":        req.Stage,
			"amount":       req.RequestedAmount.String(),
			"claimed_pct":  req.CompletionPct,
			"recorded_pct": recorded,
		},
	})

	return req, snapshot, nil
}

// recordedProgress reads the latest cumulative percentage from the progress
// ledger. A missing or failing read only affects the correlation warning.
func (s *Service) recordedProgress(ctx context.Context, projectID uuid.UUID) float64 {
	latest, err := s.ledger.LatestEntry(ctx, projectID)
	if err != nil {
		if !errors.Is(err, progress.ErrNoEntries) {
			slog.Warn("failed to read progress ledger", "project_id", projectID, "error", err)
		}

		return 0
	}

	return latest.CumulativePct
}

// Approve moves a pending request to approved. The approved amount may be
// reduced from the requested amount but never raised above it.
func (s *Service) Approve(ctx context.Context, principal auth.Principal, requestID uuid.UUID, approvedAmount decimal.Decimal) (*Request, error) {
	if !approvedAmount.IsPositive() {
		return nil, fmt.Errorf("%w: approved amount must be positive", ErrInvalidInput)
	}

	return s.transition(ctx, principal, requestID, StatusPending, func(req *Request) error {
		if approvedAmount.GreaterThan(req.RequestedAmount) {
			return fmt.Errorf("%w: approved amount cannot exceed requested amount", ErrInvalidInput)
		}

		now := time.Now().UTC()
		req.Status = StatusApproved
		req.ApprovedAmount = &approvedAmount
		req.RespondedAt = &now

		return nil
	}, notify.EventPaymentApproved)
}

// Reject moves a pending request to rejected, freeing the stage for a new
// request.
func (s *Service) Reject(ctx context.Context, principal auth.Principal, requestID uuid.UUID, reason string) (*Request, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}

	return s.transition(ctx, principal, requestID, StatusPending, func(req *Request) error {
		now := time.Now().UTC()
		req.Status = StatusRejected
		req.RejectionReason = reason
		req.RespondedAt = &now

		return nil
	}, notify.EventPaymentRejected)
}

// MarkPaid records the payment confirmation for an approved request. This is
// the point at which the approved amount becomes committed spend.
func (s *Service) MarkPaid(ctx context.Context, principal auth.Principal, requestID uuid.UUID, paymentRef string) (*Request, error) {
	if paymentRef == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrInvalidInput)
	}

	return s.transition(ctx, principal, requestID, StatusApproved, func(req *Request) error {
		now := time.Now().UTC()
		req.Status = StatusPaid
		req.PaymentRef = paymentRef
		req.PaidAt = &now

		return nil
	}, notify.EventPaymentPaid)
}

// transition runs one state change under a row lock. Requests already past
// the expected state fail ErrInvalidTransition rather than silently
// succeeding, so a retried approve can never credit the budget twice.
func (s *Service) transition(ctx context.Context, principal auth.Principal, requestID uuid.UUID, from Status, apply func(*Request) error, eventType notify.EventType) (*Request, error) {
	tx, err := s.repo.BeginTransition(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	req, err := tx.Request(ctx)
	if err != nil {
		return nil, err
	}

	proj, err := tx.Project(ctx)
	if err != nil {
		return nil, err
	}

	if proj.HomeownerID != principal.UserID {
		return nil, project.ErrForbidden
	}

	if req.Status != from {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidTransition, req.Status)
	}

	if err := apply(req); err != nil {
		return nil, err
	}

	if err := tx.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	details := map[string]any{
		"request_id": req.ID,
		"stage":      req.Stage,
		"status":     req.Status,
	}
	if req.ApprovedAmount != nil {
		details["approved_amount"] = req.ApprovedAmount.String()
	}

	notify.Dispatch(ctx, s.notifier, notify.Event{
		Type:      eventType,
		ProjectID: req.ProjectID,
		Details:   details,
	})

	return req, nil
}

// Budget returns the current budget position for a project.
func (s *Service) Budget(ctx context.Context, principal auth.Principal, projectID uuid.UUID) (*BudgetSnapshot, error) {
	proj, err := s.checkAccess(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}

	paid, pending, err := s.repo.BudgetTotals(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("reading budget totals: %w", err)
	}

	return newSnapshot(proj.TotalBudget, paid, pending), nil
}

func (s *Service) Get(ctx context.Context, principal auth.Principal, requestID uuid.UUID) (*Request, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checkAccess(ctx, principal, req.ProjectID); err != nil {
		return nil, err
	}

	return req, nil
}

func (s *Service) List(ctx context.Context, principal auth.Principal, projectID uuid.UUID, filter ListFilter) ([]*Request, error) {
	if _, err := s.checkAccess(ctx, principal, projectID); err != nil {
		return nil, err
	}

	return s.repo.ListRequests(ctx, projectID, filter)
}

func (s *Service) checkAccess(ctx context.Context, principal auth.Principal, projectID uuid.UUID) (*project.Project, error) {
	proj, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !proj.AccessibleBy(principal.UserID) {
		return nil, project.ErrForbidden
	}

	return proj, nil
}
