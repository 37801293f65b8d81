package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ListResponse struct {
	resp.Response
	Assets []models.Asset `json:"data"`
}

func List(
	log *slog.Logger,
	meta MetaStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.assets.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := roles.ProjectID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid project id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := meta.AssetsForProject(ctx, projectID)
		if err != nil {
			log.Error("failed to list assets", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if list == nil {
			list = []models.Asset{}
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Assets:   list,
		})
	}
}

// Download streams the blob back with its stored content type and
// original file name.
func Download(
	log *slog.Logger,
	meta MetaStore,
	blobs BlobStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.assets.Download"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := roles.ProjectID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid project id"))

			return
		}

		id, err := assetID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid asset id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		asset, err := meta.Asset(ctx, projectID, id)
		if err != nil {
			if errors.Is(err, storage.ErrAssetNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("asset not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to load asset metadata", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		blob, err := blobs.Download(ctx, asset.ObjectKey)
		if err != nil {
			log.Error("failed to download blob", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}
		defer blob.Close()

		w.Header().Set("Content-Type", asset.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", asset.FileName))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", asset.SizeBytes))

		if _, err := io.Copy(w, blob); err != nil {
			log.Warn("asset stream interrupted", sl.Err(err))
		}
	}
}

func Delete(
	log *slog.Logger,
	meta MetaStore,
	blobs BlobStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.assets.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := roles.ProjectID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid project id"))

			return
		}

		id, err := assetID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid asset id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		asset, err := meta.Asset(ctx, projectID, id)
		if err != nil {
			if errors.Is(err, storage.ErrAssetNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("asset not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to load asset metadata", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := meta.DeleteAsset(ctx, projectID, id); err != nil {
			log.Error("failed to delete asset metadata", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := blobs.Delete(ctx, asset.ObjectKey); err != nil {
			log.Warn("failed to delete blob", sl.Err(err))
		}

		log.Info("asset deleted", slog.Int64("asset_id", id))

		render.JSON(w, r, resp.OK())
	}
}
