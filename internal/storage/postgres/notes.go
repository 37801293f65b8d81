package postgres

import (
	"context"
	"fmt"

	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveNote(ctx context.Context, projectID, authorID int64, body string) (models.Note, error) {
	const op = "storage.postgres.SaveNote"

	query := `
		INSERT INTO notes (project_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, project_id, author_id, body, created_at;
	`

	n, err := scanNote(r.pool.QueryRow(ctx, query, projectID, authorID, body))
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *PostgresRepo) NotesForProject(ctx context.Context, projectID int64) ([]models.Note, error) {
	const op = "storage.postgres.NotesForProject"

	query := `
		SELECT id, project_id, author_id, body, created_at
		FROM notes
		WHERE project_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var notes []models.Note

	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

func (r *PostgresRepo) DeleteNote(ctx context.Context, projectID, noteID int64) error {
	query := `DELETE FROM notes WHERE id = $1 AND project_id = $2`

	tag, err := r.pool.Exec(ctx, query, noteID, projectID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrNoteNotFound
	}

	return nil
}

func scanNote(row pgx.Row) (models.Note, error) {
	var n models.Note
	err := row.Scan(
		&n.ID,
		&n.ProjectID,
		&n.AuthorID,
		&n.Body,
		&n.CreatedAt,
	)

	return n, err
}
