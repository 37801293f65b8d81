package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	resp "projectboard/internal/lib/api/response"
	"projectboard/internal/middleware/authn"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const (
	CookieName = "XSRF-TOKEN"
	HeaderName = "X-XSRF-TOKEN"

	nonceLen = 32
)

// Guard implements the double-submit-cookie pattern with HMAC-signed
// token values: token = base64url(nonce) "." base64url(HMAC-SHA256(secret, nonce)).
// Signing stops an attacker who can plant arbitrary cookies (e.g. via a
// subdomain) from forging a matching pair.
type Guard struct {
	log    *slog.Logger
	secret []byte
	ttl    time.Duration
}

func New(log *slog.Logger, secret string, ttl time.Duration) *Guard {
	return &Guard{
		log:    log,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue mints a fresh signed token value.
func (g *Guard) Issue() (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	return encode(nonce) + "." + encode(g.mac(nonce)), nil
}

// Verify reports whether the token value was issued by us and is
// untampered. Comparison is constant-time.
func (g *Guard) Verify(token string) bool {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}

	nonce, err := decode(parts[0])
	if err != nil || len(nonce) != nonceLen {
		return false
	}

	mac, err := decode(parts[1])
	if err != nil {
		return false
	}

	return hmac.Equal(mac, g.mac(nonce))
}

// SetCookie writes the token cookie. HttpOnly must stay false: the
// double-submit pattern requires scripts to read the value back into
// the header.
func (g *Guard) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

// Protect blocks mutating cookie-session requests that fail the
// double-submit check. Safe methods are exempt, as is any request
// carrying a bearer token: bearer credentials are not sent cross-site
// by browsers, so those requests cannot be forged via cookies.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middleware.csrf.Protect"

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if authn.BearerToken(r) != "" {
			next.ServeHTTP(w, r)
			return
		}

		log := g.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		cookie, err := r.Cookie(CookieName)
		header := r.Header.Get(HeaderName)

		if err != nil || cookie.Value == "" || header == "" {
			log.Warn("csrf token missing")

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.ErrorCode("csrf token missing", resp.CodeCSRFMissing))

			return
		}

		if !hmac.Equal([]byte(cookie.Value), []byte(header)) || !g.Verify(header) {
			log.Warn("csrf token mismatch")

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.ErrorCode("csrf token invalid", resp.CodeCSRFInvalid))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Guard) mac(nonce []byte) []byte {
	h := hmac.New(sha256.New, g.secret)
	h.Write(nonce)
	return h.Sum(nil)
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
