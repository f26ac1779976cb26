package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/payment"
	"github.com/dmcalde/sitework/internal/project"
	projectStore "github.com/dmcalde/sitework/internal/project/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectRequestColumns = `
	r.id, r.project_id, r.contractor_id, r.stage, r.requested_amount,
	r.pct_of_total, r.completion_pct, r.description, r.status,
	r.approved_amount, r.rejection_reason, r.payment_ref,
	r.created_at, r.responded_at, r.paid_at
`

func scanRequest(s scanner) (*payment.Request, error) {
	var r payment.Request

	var stageStr, statusStr string

	if err := s.Scan(
		&r.ID, &r.ProjectID, &r.ContractorID, &stageStr, &r.RequestedAmount,
		&r.PctOfTotal, &r.CompletionPct, &r.Description, &statusStr,
		&r.ApprovedAmount, &r.RejectionReason, &r.PaymentRef,
		&r.CreatedAt, &r.RespondedAt, &r.PaidAt,
	); err != nil {
		return nil, err
	}

	r.Stage = project.Stage(stageStr)
	r.Status = payment.Status(statusStr)

	return &r, nil
}

// budget totals: paid requests count at their approved amount; outstanding
// requests count at the approved amount when set, the requested amount
// otherwise.
const totalsQuery = `
	SELECT
		COALESCE(SUM(approved_amount) FILTER (WHERE status = 'paid'), 0),
		COALESCE(SUM(COALESCE(approved_amount, requested_amount))
			FILTER (WHERE status IN ('pending', 'approved')), 0)
	FROM payment_requests
	WHERE project_id = $1
`

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*payment.Request, error) {
	query := `SELECT ` + selectRequestColumns + `
		FROM payment_requests r
		WHERE r.id = $1`

	r, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("getting request: %w", err)
	}

	return r, nil
}

func (s *Store) ListRequests(ctx context.Context, projectID uuid.UUID, filter payment.ListFilter) ([]*payment.Request, error) {
	query := `SELECT ` + selectRequestColumns + `
		FROM payment_requests r
		WHERE r.project_id = $1`

	args := []any{projectID}

	argIdx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND r.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Stage != nil {
		query += fmt.Sprintf(" AND r.stage = $%d", argIdx)

		args = append(args, *filter.Stage)
		argIdx++
	}

	query += " ORDER BY r.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []*payment.Request

	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}

		requests = append(requests, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request rows: %w", err)
	}

	return requests, nil
}

func (s *Store) BudgetTotals(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var paid, pending decimal.Decimal
	if err := s.db.QueryRowContext(ctx, totalsQuery, projectID).Scan(&paid, &pending); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("reading budget totals: %w", err)
	}

	return paid, pending, nil
}

// projectLockKey derives a stable advisory-lock key for serializing all
// payment submissions to one project.
func projectLockKey(projectID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("payment"))
	h.Write([]byte{0})
	h.Write([]byte(projectID.String()))

	return int64(h.Sum64())
}

type submitTx struct {
	tx        *sql.Tx
	projectID uuid.UUID
}

func (s *Store) BeginSubmit(ctx context.Context, projectID uuid.UUID) (payment.SubmitTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning submit tx: %w", err)
	}

	lockKey := projectLockKey(projectID)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring submit lock: %w", err)
	}

	return &submitTx{tx: dbTx, projectID: projectID}, nil
}

func (stx *submitTx) Commit() error   { return stx.tx.Commit() }
func (stx *submitTx) Rollback() error { return stx.tx.Rollback() }

func (stx *submitTx) Project(ctx context.Context) (*project.Project, error) {
	return projectStore.GetProjectTx(ctx, stx.tx, stx.projectID)
}

func (stx *submitTx) HasOutstanding(ctx context.Context, stage project.Stage) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM payment_requests
		WHERE project_id = $1 AND stage = $2 AND status IN ('pending', 'approved')
	)`

	var exists bool
	if err := stx.tx.QueryRowContext(ctx, query, stx.projectID, stage).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking outstanding requests: %w", err)
	}

	return exists, nil
}

func (stx *submitTx) Totals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var paid, pending decimal.Decimal
	if err := stx.tx.QueryRowContext(ctx, totalsQuery, stx.projectID).Scan(&paid, &pending); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("reading budget totals: %w", err)
	}

	return paid, pending, nil
}

func (stx *submitTx) CreateRequest(ctx context.Context, r *payment.Request) error {
	query := `
		INSERT INTO payment_requests (project_id, contractor_id, stage,
			requested_amount, pct_of_total, completion_pct, description, status,
			created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := stx.tx.QueryRowContext(ctx, query,
		r.ProjectID,
		r.ContractorID,
		r.Stage,
		r.RequestedAmount,
		r.PctOfTotal,
		r.CompletionPct,
		r.Description,
		r.Status,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return nil
}

type transitionTx struct {
	tx        *sql.Tx
	requestID uuid.UUID

	// projectID is captured by Request so Project can load ownership state
	// in the same transaction.
	projectID uuid.UUID
}

func (s *Store) BeginTransition(ctx context.Context, requestID uuid.UUID) (payment.TransitionTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transition tx: %w", err)
	}

	return &transitionTx{tx: dbTx, requestID: requestID}, nil
}

func (ttx *transitionTx) Commit() error   { return ttx.tx.Commit() }
func (ttx *transitionTx) Rollback() error { return ttx.tx.Rollback() }

// Request locks the row so concurrent transitions on the same request
// serialize; the loser then sees the already-transitioned status.
func (ttx *transitionTx) Request(ctx context.Context) (*payment.Request, error) {
	query := `SELECT ` + selectRequestColumns + `
		FROM payment_requests r
		WHERE r.id = $1
		FOR UPDATE`

	r, err := scanRequest(ttx.tx.QueryRowContext(ctx, query, ttx.requestID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("getting request: %w", err)
	}

	ttx.projectID = r.ProjectID

	return r, nil
}

func (ttx *transitionTx) Project(ctx context.Context) (*project.Project, error) {
	return projectStore.GetProjectTx(ctx, ttx.tx, ttx.projectID)
}

func (ttx *transitionTx) UpdateRequest(ctx context.Context, r *payment.Request) error {
	query := `
		UPDATE payment_requests
		SET status = $1, approved_amount = $2, rejection_reason = $3,
			payment_ref = $4, responded_at = $5, paid_at = $6
		WHERE id = $7
	`

	_, err := ttx.tx.ExecContext(ctx, query,
		r.Status,
		r.ApprovedAmount,
		r.RejectionReason,
		r.PaymentRef,
		r.RespondedAt,
		r.PaidAt,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}

	return nil
}
