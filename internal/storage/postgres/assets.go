package postgres

import (
	"context"
	"errors"
	"fmt"

	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveAsset(ctx context.Context, a models.Asset) (models.Asset, error) {
	const op = "storage.postgres.SaveAsset"

	query := `
		INSERT INTO assets (project_id, uploader_id, object_key, file_name, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_id, uploader_id, object_key, file_name, content_type, size_bytes, created_at;
	`

	saved, err := scanAsset(r.pool.QueryRow(ctx, query,
		a.ProjectID, a.UploaderID, a.ObjectKey, a.FileName, a.ContentType, a.SizeBytes))
	if err != nil {
		return models.Asset{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

func (r *PostgresRepo) Asset(ctx context.Context, projectID, assetID int64) (models.Asset, error) {
	query := `
		SELECT id, project_id, uploader_id, object_key, file_name, content_type, size_bytes, created_at
		FROM assets
		WHERE id = $1 AND project_id = $2;
	`

	a, err := scanAsset(r.pool.QueryRow(ctx, query, assetID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Asset{}, storage.ErrAssetNotFound
		}

		return models.Asset{}, err
	}

	return a, nil
}

func (r *PostgresRepo) AssetsForProject(ctx context.Context, projectID int64) ([]models.Asset, error) {
	const op = "storage.postgres.AssetsForProject"

	query := `
		SELECT id, project_id, uploader_id, object_key, file_name, content_type, size_bytes, created_at
		FROM assets
		WHERE project_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var assets []models.Asset

	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		assets = append(assets, a)
	}

	return assets, rows.Err()
}

func (r *PostgresRepo) DeleteAsset(ctx context.Context, projectID, assetID int64) error {
	query := `DELETE FROM assets WHERE id = $1 AND project_id = $2`

	tag, err := r.pool.Exec(ctx, query, assetID, projectID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrAssetNotFound
	}

	return nil
}

func scanAsset(row pgx.Row) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.UploaderID,
		&a.ObjectKey,
		&a.FileName,
		&a.ContentType,
		&a.SizeBytes,
		&a.CreatedAt,
	)

	return a, err
}
