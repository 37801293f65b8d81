package csrftoken

import (
	"log/slog"
	"net/http"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/csrf"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Token string `json:"csrf_token"`
}

// New returns the caller's CSRF token, minting and setting the cookie
// on first contact. An existing valid cookie is reused so parallel tabs
// agree on the value.
func New(
	log *slog.Logger,
	guard *csrf.Guard,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.csrftoken.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if cookie, err := r.Cookie(csrf.CookieName); err == nil && guard.Verify(cookie.Value) {
			render.JSON(w, r, Response{
				Response: resp.OK(),
				Token:    cookie.Value,
			})

			return
		}

		token, err := guard.Issue()
		if err != nil {
			log.Error("failed to issue csrf token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		guard.SetCookie(w, token)

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Token:    token,
		})
	}
}
