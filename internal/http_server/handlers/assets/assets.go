package assets

import (
	"context"
	"errors"
	"io"
	"strconv"

	"net/http"

	"projectboard/internal/models"

	"github.com/go-chi/chi"
)

// maxUploadBytes caps a single asset upload.
const maxUploadBytes = 25 << 20

type MetaStore interface {
	SaveAsset(ctx context.Context, a models.Asset) (models.Asset, error)
	Asset(ctx context.Context, projectID, assetID int64) (models.Asset, error)
	AssetsForProject(ctx context.Context, projectID int64) ([]models.Asset, error)
	DeleteAsset(ctx context.Context, projectID, assetID int64) error
}

type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func assetID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "assetID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid asset id")
	}

	return id, nil
}
