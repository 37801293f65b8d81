package roles

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"projectboard/internal/access"
	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ctxKey struct{}

// Require gates a project-scoped route on the caller's effective role.
// The project existence check runs first, so a missing project is a 404
// while an insufficient role is a 403.
func Require(log *slog.Logger, resolver *access.Resolver, allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.roles.Require"

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

			projectID, err := ProjectID(r)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("invalid project id"))

				return
			}

			role, err := resolver.Check(r.Context(), identity.UserID, projectID, allowed...)
			if err != nil {
				if errors.Is(err, access.ErrProjectNotFound) {
					render.Status(r, http.StatusNotFound)
					render.JSON(w, r, resp.ErrorCode("project not found", resp.CodeNotFound))

					return
				}
				if errors.Is(err, access.ErrForbidden) {
					log.Warn("role check failed",
						slog.Int64("uid", identity.UserID),
						slog.Int64("project_id", projectID),
						slog.String("role", string(role)),
					)

					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, resp.ErrorCode("forbidden", resp.CodeForbidden))

					return
				}

				log.Error("failed to resolve role", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))

				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxKey{}, role),
			))
		})
	}
}

// FromContext returns the role resolved by Require.
func FromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(ctxKey{}).(models.Role)
	return role, ok
}

// ProjectID parses the projectID URL parameter.
func ProjectID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid project id")
	}

	return id, nil
}
