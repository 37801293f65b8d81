package postgres

import (
	"context"
	"errors"
	"fmt"

	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveProject(ctx context.Context, ownerID int64, name, description string) (models.Project, error) {
	const op = "storage.postgres.SaveProject"

	query := `
		INSERT INTO projects (owner_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, description, created_at, updated_at;
	`

	p, err := scanProject(r.pool.QueryRow(ctx, query, ownerID, name, description))
	if err != nil {
		return models.Project{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (r *PostgresRepo) Project(ctx context.Context, id int64) (models.Project, error) {
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM projects
		WHERE id = $1;
	`

	p, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, storage.ErrProjectNotFound
		}

		return models.Project{}, err
	}

	return p, nil
}

// ProjectOwner resolves the owner of a project. Distinguishing a missing
// project from a non-owner caller is what lets the role check return 404
// before 403.
func (r *PostgresRepo) ProjectOwner(ctx context.Context, projectID int64) (int64, error) {
	query := `SELECT owner_id FROM projects WHERE id = $1`

	var ownerID int64

	err := r.pool.QueryRow(ctx, query, projectID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrProjectNotFound
		}

		return 0, err
	}

	return ownerID, nil
}

// ProjectsForUser lists projects the user owns plus projects with an
// accepted collaboration.
func (r *PostgresRepo) ProjectsForUser(ctx context.Context, userID int64) ([]models.Project, error) {
	const op = "storage.postgres.ProjectsForUser"

	query := `
		SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN collaborations c
			ON c.project_id = p.id AND c.user_id = $1 AND c.accepted_at IS NOT NULL
		WHERE p.owner_id = $1 OR c.user_id IS NOT NULL
		ORDER BY p.created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var projects []models.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

func (r *PostgresRepo) UpdateProject(ctx context.Context, id int64, name, description string) (models.Project, error) {
	query := `
		UPDATE projects
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, owner_id, name, description, created_at, updated_at;
	`

	p, err := scanProject(r.pool.QueryRow(ctx, query, name, description, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, storage.ErrProjectNotFound
		}

		return models.Project{}, err
	}

	return p, nil
}

func (r *PostgresRepo) DeleteProject(ctx context.Context, id int64) error {
	query := `DELETE FROM projects WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrProjectNotFound
	}

	return nil
}

func scanProject(row pgx.Row) (models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}
