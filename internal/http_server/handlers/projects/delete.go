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
	"projectboard/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Deleter interface {
	DeleteProject(ctx context.Context, id int64) error
}

func Delete(
	log *slog.Logger,
	deleter Deleter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.projects.Delete"

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

		if err := deleter.DeleteProject(ctx, projectID); err != nil {
			if errors.Is(err, storage.ErrProjectNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("project not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to delete project", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("project deleted", slog.Int64("project_id", projectID))

		render.JSON(w, r, resp.OK())
	}
}
