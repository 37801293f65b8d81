package postgres

import (
	"context"
	"errors"
	"fmt"

	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveTicket(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	const op = "storage.postgres.SaveTicket"

	query := `
		INSERT INTO tickets (project_id, author_id, assignee_id, title, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_id, author_id, assignee_id, title, body, status, created_at, updated_at;
	`

	saved, err := scanTicket(r.pool.QueryRow(ctx, query,
		t.ProjectID, t.AuthorID, t.AssigneeID, t.Title, t.Body, string(t.Status)))
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

func (r *PostgresRepo) Ticket(ctx context.Context, projectID, ticketID int64) (models.Ticket, error) {
	query := `
		SELECT id, project_id, author_id, assignee_id, title, body, status, created_at, updated_at
		FROM tickets
		WHERE id = $1 AND project_id = $2;
	`

	t, err := scanTicket(r.pool.QueryRow(ctx, query, ticketID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, storage.ErrTicketNotFound
		}

		return models.Ticket{}, err
	}

	return t, nil
}

func (r *PostgresRepo) TicketsForProject(ctx context.Context, projectID int64) ([]models.Ticket, error) {
	const op = "storage.postgres.TicketsForProject"

	query := `
		SELECT id, project_id, author_id, assignee_id, title, body, status, created_at, updated_at
		FROM tickets
		WHERE project_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tickets []models.Ticket

	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

func (r *PostgresRepo) UpdateTicket(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	query := `
		UPDATE tickets
		SET title = $1, body = $2, status = $3, assignee_id = $4, updated_at = NOW()
		WHERE id = $5 AND project_id = $6
		RETURNING id, project_id, author_id, assignee_id, title, body, status, created_at, updated_at;
	`

	updated, err := scanTicket(r.pool.QueryRow(ctx, query,
		t.Title, t.Body, string(t.Status), t.AssigneeID, t.ID, t.ProjectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, storage.ErrTicketNotFound
		}

		return models.Ticket{}, err
	}

	return updated, nil
}

func (r *PostgresRepo) DeleteTicket(ctx context.Context, projectID, ticketID int64) error {
	query := `DELETE FROM tickets WHERE id = $1 AND project_id = $2`

	tag, err := r.pool.Exec(ctx, query, ticketID, projectID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTicketNotFound
	}

	return nil
}

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.AuthorID,
		&t.AssigneeID,
		&t.Title,
		&t.Body,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	return t, err
}
