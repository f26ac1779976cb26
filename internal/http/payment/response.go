package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/payment"
	"github.com/dmcalde/sitework/internal/project"
)

type requestResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProjectID       uuid.UUID        `json:"project_id"`
	Stage           project.Stage    `json:"stage"`
	RequestedAmount decimal.Decimal  `json:"requested_amount"`
	PctOfTotal      float64          `json:"pct_of_total"`
	CompletionPct   float64          `json:"completion_pct"`
	Description     string           `json:"description,omitempty"`
	Status          payment.Status   `json:"status"`
	ApprovedAmount  *decimal.Decimal `json:"approved_amount,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	PaymentRef      string           `json:"payment_ref,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	RespondedAt     *time.Time       `json:"responded_at,omitempty"`
	PaidAt          *time.Time       `json:"paid_at,omitempty"`
}

type budgetResponse struct {
	TotalBudget  decimal.Decimal `json:"total_budget"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	Remaining    decimal.Decimal `json:"remaining"`
}

func toResponse(r *payment.Request) requestResponse {
	return requestResponse{
		ID:              r.ID,
		ProjectID:       r.ProjectID,
		Stage:           r.Stage,
		RequestedAmount: r.RequestedAmount,
		PctOfTotal:      r.PctOfTotal,
		CompletionPct:   r.CompletionPct,
		Description:     r.Description,
		Status:          r.Status,
		ApprovedAmount:  r.ApprovedAmount,
		RejectionReason: r.RejectionReason,
		PaymentRef:      r.PaymentRef,
		CreatedAt:       r.CreatedAt,
		RespondedAt:     r.RespondedAt,
		PaidAt:          r.PaidAt,
	}
}

func toResponseList(requests []*payment.Request) []requestResponse {
	resp := make([]requestResponse, len(requests))
	for i, r := range requests {
		resp[i] = toResponse(r)
	}

	return resp
}

func toBudgetResponse(s *payment.BudgetSnapshot) budgetResponse {
	return budgetResponse{
		TotalBudget:  s.TotalBudget,
		TotalPaid:    s.TotalPaid,
		TotalPending: s.TotalPending,
		Remaining:    s.Remaining,
	}
}
