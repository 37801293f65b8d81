package projects

import (
	"context"
	"errors"
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

type Provider interface {
	Project(ctx context.Context, id int64) (models.Project, error)
}

func Get(
	log *slog.Logger,
	provider Provider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.projects.Get"

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

		project, err := provider.Project(ctx, projectID)
		if err != nil {
			if errors.Is(err, storage.ErrProjectNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("project not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to get project", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, ProjectResponse{
			Response: resp.OK(),
			Project:  project,
		})
	}
}
