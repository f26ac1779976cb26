package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/project"
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

const selectProjectColumns = `
	p.id, p.contractor_id, p.homeowner_id, p.name, p.total_budget,
	p.site_lat, p.site_lon, p.geofence_radius_m,
	p.start_date, p.end_date, p.status, p.created_at, p.updated_at
`

func scanProject(s scanner) (*project.Project, error) {
	var p project.Project

	var statusStr string

	if err := s.Scan(
		&p.ID, &p.ContractorID, &p.HomeownerID, &p.Name, &p.TotalBudget,
		&p.SiteLat, &p.SiteLon, &p.GeofenceRadiusM,
		&p.StartDate, &p.EndDate, &statusStr, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Status = project.Status(statusStr)

	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (contractor_id, homeowner_id, name, total_budget,
			site_lat, site_lon, geofence_radius_m, start_date, end_date, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.ContractorID,
		p.HomeownerID,
		p.Name,
		p.TotalBudget,
		p.SiteLat,
		p.SiteLon,
		p.GeofenceRadiusM,
		p.StartDate,
		p.EndDate,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	return nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	query := `SELECT ` + selectProjectColumns + `
		FROM projects p
		WHERE p.id = $1`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, project.ErrNotFound
		}

		return nil, fmt.Errorf("getting project: %w", err)
	}

	return p, nil
}

// GetProjectTx loads a project inside an existing transaction so callers in
// other stores see project state consistent with their own reads.
func GetProjectTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*project.Project, error) {
	query := `SELECT ` + selectProjectColumns + `
		FROM projects p
		WHERE p.id = $1`

	p, err := scanProject(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, project.ErrNotFound
		}

		return nil, fmt.Errorf("getting project: %w", err)
	}

	return p, nil
}

func (s *Store) ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*project.Project, error) {
	query := `SELECT ` + selectProjectColumns + `
		FROM projects p
		WHERE p.contractor_id = $1 OR p.homeowner_id = $1
		ORDER BY p.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}

		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project rows: %w", err)
	}

	return projects, nil
}
