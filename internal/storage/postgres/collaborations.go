package postgres

import (
	"context"
	"errors"
	"fmt"

	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveCollaboration(ctx context.Context, projectID, userID int64, role models.Role) error {
	const op = "storage.postgres.SaveCollaboration"

	query := `
		INSERT INTO collaborations (project_id, user_id, role)
		VALUES ($1, $2, $3);
	`

	_, err := r.pool.Exec(ctx, query, projectID, userID, string(role))
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return storage.ErrCollaborationExists
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AcceptedCollaboration returns the collaboration row only when the
// invite has been accepted. Pending invites grant nothing.
func (r *PostgresRepo) AcceptedCollaboration(ctx context.Context, projectID, userID int64) (models.Collaboration, error) {
	query := `
		SELECT project_id, user_id, role, invited_at, accepted_at
		FROM collaborations
		WHERE project_id = $1 AND user_id = $2 AND accepted_at IS NOT NULL;
	`

	return r.scanCollaboration(r.pool.QueryRow(ctx, query, projectID, userID))
}

func (r *PostgresRepo) AcceptCollaboration(ctx context.Context, projectID, userID int64) error {
	query := `
		UPDATE collaborations
		SET accepted_at = NOW()
		WHERE project_id = $1 AND user_id = $2 AND accepted_at IS NULL;
	`

	tag, err := r.pool.Exec(ctx, query, projectID, userID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrCollaborationMissing
	}

	return nil
}

func (r *PostgresRepo) UpdateCollaborationRole(ctx context.Context, projectID, userID int64, role models.Role) error {
	query := `
		UPDATE collaborations
		SET role = $1
		WHERE project_id = $2 AND user_id = $3;
	`

	tag, err := r.pool.Exec(ctx, query, string(role), projectID, userID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrCollaborationMissing
	}

	return nil
}

func (r *PostgresRepo) DeleteCollaboration(ctx context.Context, projectID, userID int64) error {
	query := `DELETE FROM collaborations WHERE project_id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, projectID, userID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrCollaborationMissing
	}

	return nil
}

func (r *PostgresRepo) CollaboratorsForProject(ctx context.Context, projectID int64) ([]models.Collaboration, error) {
	const op = "storage.postgres.CollaboratorsForProject"

	query := `
		SELECT project_id, user_id, role, invited_at, accepted_at
		FROM collaborations
		WHERE project_id = $1
		ORDER BY invited_at;
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var collabs []models.Collaboration

	for rows.Next() {
		c, err := r.scanCollaboration(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		collabs = append(collabs, c)
	}

	return collabs, rows.Err()
}

func (r *PostgresRepo) scanCollaboration(row pgx.Row) (models.Collaboration, error) {
	var c models.Collaboration
	err := row.Scan(
		&c.ProjectID,
		&c.UserID,
		&c.Role,
		&c.InvitedAt,
		&c.AcceptedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Collaboration{}, storage.ErrCollaborationMissing
		}

		return models.Collaboration{}, err
	}

	return c, nil
}
