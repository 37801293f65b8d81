package assets

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type AssetResponse struct {
	resp.Response
	Asset models.Asset `json:"data"`
}

// Upload stores a multipart "file" part: contents to the blob store
// under a fresh UUID key, metadata to postgres.
func Upload(
	log *slog.Logger,
	meta MetaStore,
	blobs BlobStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.assets.Upload"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		identity, ok := authn.IdentityFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.ErrorCode("unauthorized", resp.CodeUnauthenticated))

			return
		}

		projectID, err := roles.ProjectID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid project id"))

			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			log.Warn("missing or oversized file part", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("file part missing or too large"))

			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		key := uuid.NewString()

		if err := blobs.Upload(ctx, key, file, header.Size, contentType); err != nil {
			log.Error("failed to upload blob", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		asset, err := meta.SaveAsset(ctx, models.Asset{
			ProjectID:   projectID,
			UploaderID:  identity.UserID,
			ObjectKey:   key,
			FileName:    header.Filename,
			ContentType: contentType,
			SizeBytes:   header.Size,
		})
		if err != nil {
			log.Error("failed to save asset metadata", sl.Err(err))

			// Orphaned blob cleanup is best effort.
			if derr := blobs.Delete(ctx, key); derr != nil {
				log.Warn("failed to delete orphaned blob", sl.Err(derr))
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("asset uploaded",
			slog.Int64("asset_id", asset.ID),
			slog.Int64("size", asset.SizeBytes),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, AssetResponse{
			Response: resp.OK(),
			Asset:    asset,
		})
	}
}
