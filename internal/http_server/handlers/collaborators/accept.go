package collaborators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// Accept marks the caller's pending invite as accepted. The caller has
// no role on the project yet, so this route sits outside the role
// guard; possession of a pending invite row is the authorization.
func Accept(
	log *slog.Logger,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.collaborators.Accept"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.AcceptCollaboration(ctx, projectID, identity.UserID); err != nil {
			if errors.Is(err, storage.ErrCollaborationMissing) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("no pending invite", resp.CodeNotFound))

				return
			}

			log.Error("failed to accept collaboration", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("collaboration accepted",
			slog.Int64("project_id", projectID),
			slog.Int64("user_id", identity.UserID),
		)

		render.JSON(w, r, resp.OK())
	}
}
