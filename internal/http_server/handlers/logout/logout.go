package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/authn"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

type SessionRevoker interface {
	Logout(ctx context.Context, userID int64) error
}

// New revokes the caller's session. The user comes from the verified
// access token attached by the authn middleware; the access token
// itself stays cryptographically valid until natural expiry, but the
// refresh token dies with the cache entry.
func New(
	log *slog.Logger,
	revoker SessionRevoker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

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

		if err := revoker.Logout(ctx, identity.UserID); err != nil {
			log.Error("failed to logout user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("user logged out successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}
