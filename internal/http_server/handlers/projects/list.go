package projects

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ListResponse struct {
	resp.Response
	Projects []models.Project `json:"data"`
}

type Lister interface {
	ProjectsForUser(ctx context.Context, userID int64) ([]models.Project, error)
}

// List returns every project the caller owns or collaborates on.
func List(
	log *slog.Logger,
	lister Lister,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.projects.List"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		projects, err := lister.ProjectsForUser(ctx, identity.UserID)
		if err != nil {
			log.Error("failed to list projects", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if projects == nil {
			projects = []models.Project{}
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Projects: projects,
		})
	}
}
