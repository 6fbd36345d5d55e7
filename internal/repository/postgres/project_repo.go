// internal/repository/postgres/project_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pocket-agency-service/internal/domain/project"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const projectColumns = `
	id, reference, customer_id, title, brief, status,
	assigned_to, tags, notes, created_at, updated_at`

type ProjectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) scanRow(row pgx.Row) (*project.Project, error) {
	var p project.Project

	err := row.Scan(
		&p.ID, &p.Reference, &p.CustomerID, &p.Title, &p.Brief, &p.Status,
		&p.AssignedTo, pq.Array(&p.Tags), &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (reference, customer_id, title, brief, status, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.pool.QueryRow(
		ctx, query,
		p.Reference, p.CustomerID, p.Title, p.Brief, p.Status, pq.Array(p.Tags),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return r.scanRow(r.db.pool.QueryRow(ctx, query, id))
}

// List returns a page of projects. customerID of 0 lists across all
// customers (staff view); otherwise results are scoped to that customer.
func (r *ProjectRepository) List(ctx context.Context, customerID int64, filters *project.ProjectListFilters) ([]project.Project, int64, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if customerID > 0 {
		where += fmt.Sprintf(" AND customer_id = $%d", argPos)
		args = append(args, customerID)
		argPos++
	}

	if filters.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *filters.Status)
		argPos++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM projects ` + where
	if err := r.db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM projects %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		projectColumns, where, argPos, argPos+1,
	)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var p project.Project
		err := rows.Scan(
			&p.ID, &p.Reference, &p.CustomerID, &p.Title, &p.Brief, &p.Status,
			&p.AssignedTo, pq.Array(&p.Tags), &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, total, rows.Err()
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id int64, status project.ProjectStatus, notes string, assignedTo int64) error {
	query := `
		UPDATE projects
		SET status = $1,
		    notes = NULLIF($2, ''),
		    assigned_to = COALESCE(assigned_to, $3),
		    updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.pool.Exec(ctx, query, status, notes, assignedTo, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
