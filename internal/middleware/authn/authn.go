package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	resp "projectboard/internal/lib/api/response"
	"projectboard/internal/lib/jwt"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ctxKey struct{}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

// Authenticate requires a valid bearer access token and attaches the
// resolved identity to the request context. The four failure modes all
// surface as 401 but carry distinct codes for logging and telemetry:
// UNAUTHENTICATED (no token), TOKEN_INVALID (bad signature/malformed),
// TOKEN_EXPIRED, USER_NOT_FOUND (valid token, account gone).
func Authenticate(log *slog.Logger, tokens *jwt.Manager, users UserProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.Authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			identity, code, err := resolve(r, tokens, users)
			if err != nil {
				log.Warn("authentication failed", slog.String("code", code), sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.ErrorCode("unauthorized", code))

				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxKey{}, identity),
			))
		})
	}
}

// Maybe performs the same checks as Authenticate but proceeds without
// an identity on any failure. For endpoints with public and
// authenticated variants.
func Maybe(log *slog.Logger, tokens *jwt.Manager, users UserProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.Maybe"

			identity, code, err := resolve(r, tokens, users)
			if err != nil {
				if code != resp.CodeUnauthenticated {
					log.Debug("optional auth failed, proceeding anonymously",
						slog.String("op", op),
						slog.String("code", code),
					)
				}

				next.ServeHTTP(w, r)

				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxKey{}, identity),
			))
		})
	}
}

// IdentityFromContext returns the identity attached by Authenticate or
// Maybe.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(ctxKey{}).(models.Identity)
	return identity, ok
}

func resolve(r *http.Request, tokens *jwt.Manager, users UserProvider) (models.Identity, string, error) {
	raw := BearerToken(r)
	if raw == "" {
		return models.Identity{}, resp.CodeUnauthenticated, errors.New("no bearer token")
	}

	identity, err := tokens.VerifyAccess(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, resp.CodeTokenExpired, err
		}

		return models.Identity{}, resp.CodeTokenInvalid, err
	}

	// Tokens can outlive a deleted account; re-confirm the user exists.
	if _, err := users.UserByID(r.Context(), identity.UserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Identity{}, resp.CodeUserNotFound, err
		}

		return models.Identity{}, resp.CodeTokenInvalid, err
	}

	return identity, "", nil
}

// BearerToken extracts the token from the Authorization header, or ""
// if the header is absent or not bearer-shaped.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return ""
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
