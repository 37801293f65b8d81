package authn

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	resp "projectboard/internal/lib/api/response"
	"projectboard/internal/lib/jwt"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID map[int64]models.User
}

func (f *fakeUsers) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoIdentity(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = json.NewEncoder(w).Encode(identity)
	})
}

func do(t *testing.T, h http.Handler, authz string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) resp.Response {
	t.Helper()

	var body resp.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body
}

func TestAuthenticate(t *testing.T) {
	tokens := jwt.NewManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	users := &fakeUsers{byID: map[int64]models.User{
		1: {ID: 1, Email: "alice@x.com", Username: "alice"},
	}}

	handler := Authenticate(discardLogger(), tokens, users)(echoIdentity(t))

	pair, err := tokens.NewPair(models.Identity{UserID: 1, Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)

	t.Run("valid token attaches identity", func(t *testing.T) {
		rec := do(t, handler, "Bearer "+pair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)

		var identity models.Identity
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&identity))
		assert.Equal(t, int64(1), identity.UserID)
		assert.Equal(t, "alice", identity.Username)
	})

	t.Run("no token", func(t *testing.T) {
		rec := do(t, handler, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, resp.CodeUnauthenticated, decodeError(t, rec).Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := do(t, handler, "Token "+pair.AccessToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, resp.CodeUnauthenticated, decodeError(t, rec).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := do(t, handler, "Bearer not.a.jwt")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, resp.CodeTokenInvalid, decodeError(t, rec).Code)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		rec := do(t, handler, "Bearer "+pair.RefreshToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, resp.CodeTokenInvalid, decodeError(t, rec).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewManager("access-secret", "refresh-secret", -time.Minute, time.Hour)
		stale, err := expired.NewPair(models.Identity{UserID: 1, Username: "alice", Email: "alice@x.com"})
		require.NoError(t, err)

		rec := do(t, handler, "Bearer "+stale.AccessToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, resp.CodeTokenExpired, decodeError(t, rec).Code)
	})

	t.Run("deleted account", func(t *testing.T) {
		gone, err := tokens.NewPair(models.Identity{UserID: 77, Username: "ghost", Email: "ghost@x.com"})
		require.NoError(t, err)

		rec := do(t, handler, "Bearer "+gone.AccessToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, resp.CodeUserNotFound, decodeError(t, rec).Code)
	})
}

func TestMaybe(t *testing.T) {
	tokens := jwt.NewManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	users := &fakeUsers{byID: map[int64]models.User{
		1: {ID: 1, Email: "alice@x.com", Username: "alice"},
	}}

	handler := Maybe(discardLogger(), tokens, users)(echoIdentity(t))

	t.Run("anonymous request proceeds", func(t *testing.T) {
		rec := do(t, handler, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("bad token proceeds anonymously", func(t *testing.T) {
		rec := do(t, handler, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		pair, err := tokens.NewPair(models.Identity{UserID: 1, Username: "alice", Email: "alice@x.com"})
		require.NoError(t, err)

		rec := do(t, handler, "Bearer "+pair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)

		var identity models.Identity
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&identity))
		assert.Equal(t, int64(1), identity.UserID)
	})
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name  string
		authz string
		want  string
	}{
		{"absent", "", ""},
		{"bearer", "Bearer abc", "abc"},
		{"case insensitive scheme", "bearer abc", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}
			assert.Equal(t, tc.want, BearerToken(req))
		})
	}
}
