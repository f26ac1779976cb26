package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/progress"
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

const selectEntryColumns = `
	e.id, e.project_id, e.contractor_id, e.date, e.stage,
	e.incremental_pct, e.cumulative_pct, e.working_hours,
	e.lat, e.lon, e.location_verified, e.evidence_refs, e.notes, e.created_at
`

func scanEntry(s scanner) (*progress.Entry, error) {
	var e progress.Entry

	var stageStr string

	var refs []byte

	if err := s.Scan(
		&e.ID, &e.ProjectID, &e.ContractorID, &e.Date, &stageStr,
		&e.IncrementalPct, &e.CumulativePct, &e.WorkingHours,
		&e.Lat, &e.Lon, &e.LocationVerified, &refs, &e.Notes, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Stage = project.Stage(stageStr)

	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &e.EvidenceRefs); err != nil {
			return nil, fmt.Errorf("decoding evidence refs: %w", err)
		}
	}

	return &e, nil
}

func (s *Store) LatestEntry(ctx context.Context, projectID uuid.UUID) (*progress.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM progress_entries e
		WHERE e.project_id = $1
		ORDER BY e.date DESC
		LIMIT 1`

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, projectID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, progress.ErrNoEntries
		}

		return nil, fmt.Errorf("getting latest entry: %w", err)
	}

	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, projectID uuid.UUID, filter progress.ListFilter) ([]*progress.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM progress_entries e
		WHERE e.project_id = $1`

	args := []any{projectID}

	argIdx := 2

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND e.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND e.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY e.date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []*progress.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry rows: %w", err)
	}

	return entries, nil
}

// projectLockKey derives a stable advisory-lock key for serializing all
// progress submissions to one project.
func projectLockKey(projectID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("progress"))
	h.Write([]byte{0})
	h.Write([]byte(projectID.String()))

	return int64(h.Sum64())
}

type submitTx struct {
	tx        *sql.Tx
	projectID uuid.UUID
}

func (s *Store) BeginSubmit(ctx context.Context, projectID uuid.UUID) (progress.SubmitTx, error) {
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

func (stx *submitTx) HasEntryOn(ctx context.Context, date time.Time) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM progress_entries WHERE project_id = $1 AND date = $2
	)`

	var exists bool
	if err := stx.tx.QueryRowContext(ctx, query, stx.projectID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking entry date: %w", err)
	}

	return exists, nil
}

func (stx *submitTx) LatestEntry(ctx context.Context) (*progress.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM progress_entries e
		WHERE e.project_id = $1
		ORDER BY e.date DESC
		LIMIT 1`

	e, err := scanEntry(stx.tx.QueryRowContext(ctx, query, stx.projectID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, progress.ErrNoEntries
		}

		return nil, fmt.Errorf("getting latest entry: %w", err)
	}

	return e, nil
}

func (stx *submitTx) CreateEntry(ctx context.Context, e *progress.Entry) error {
	refs, err := json.Marshal(e.EvidenceRefs)
	if err != nil {
		return fmt.Errorf("encoding evidence refs: %w", err)
	}

	query := `
		INSERT INTO progress_entries (project_id, contractor_id, date, stage,
			incremental_pct, cumulative_pct, working_hours, lat, lon,
			location_verified, evidence_refs, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING id, created_at
	`

	err = stx.tx.QueryRowContext(ctx, query,
		e.ProjectID,
		e.ContractorID,
		e.Date,
		e.Stage,
		e.IncrementalPct,
		e.CumulativePct,
		e.WorkingHours,
		e.Lat,
		e.Lon,
		e.LocationVerified,
		refs,
		e.Notes,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating entry: %w", err)
	}

	return nil
}
