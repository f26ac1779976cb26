package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/project"
)

var (
	// ErrInvalidInput covers malformed or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid payment request input")

	// ErrNotFound means no such payment request.
	ErrNotFound = errors.New("payment request not found")

	// ErrStageOutstanding means a pending or approved request already exists
	// for the stage.
	ErrStageOutstanding = errors.New("stage already has an outstanding payment request")

	// ErrBudgetExceeded means the requested amount does not fit the
	// remaining project budget.
	ErrBudgetExceeded = errors.New("requested amount exceeds remaining budget")

	// ErrInvalidTransition means the request is not in a state that allows
	// the attempted transition.
	ErrInvalidTransition = errors.New("invalid payment request transition")
)

// Status is the lifecycle state of a payment request. Transitions only move
// forward: pending -> approved -> paid, or pending -> rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// Outstanding reports whether the request blocks new requests for its stage.
func (s Status) Outstanding() bool {
	return s == StatusPending || s == StatusApproved
}

// Request is a contractor's claim for a staged payment against the project
// budget.
type Request struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	ContractorID    uuid.UUID
	Stage           project.Stage
	RequestedAmount decimal.Decimal
	PctOfTotal      float64
	CompletionPct   float64
	Description     string
	Status          Status
	ApprovedAmount  *decimal.Decimal
	RejectionReason string
	PaymentRef      string
	CreatedAt       time.Time
	RespondedAt     *time.Time
	PaidAt          *time.Time
}

// BudgetSnapshot is the derived budget position of a project. Pending and
// approved requests both count against the budget; paid requests count at
// their approved amount.
type BudgetSnapshot struct {
	TotalBudget  decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalPending decimal.Decimal
	Remaining    decimal.Decimal
}

func newSnapshot(totalBudget, paid, pending decimal.Decimal) *BudgetSnapshot {
	return &BudgetSnapshot{
		TotalBudget:  totalBudget,
		TotalPaid:    paid,
		TotalPending: pending,
		Remaining:    totalBudget.Sub(paid).Sub(pending),
	}
}
