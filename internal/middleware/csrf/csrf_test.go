package csrf

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	resp "projectboard/internal/lib/api/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), "csrf-test-secret", 24*time.Hour)
}

func TestIssueVerify(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.Issue()
	require.NoError(t, err)
	assert.True(t, g.Verify(token))

	second, err := g.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}

func TestVerify_Rejects(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.Issue()
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	require.Len(t, parts, 2)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", parts[0]},
		{"tampered nonce", strings.Repeat("A", len(parts[0])) + "." + parts[1]},
		{"tampered mac", parts[0] + "." + strings.Repeat("A", len(parts[1]))},
		{"not base64", "!!!.???"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, g.Verify(tc.token))
		})
	}

	t.Run("other secret", func(t *testing.T) {
		other := New(slog.New(slog.NewTextHandler(io.Discard, nil)), "another-secret", time.Hour)
		assert.False(t, other.Verify(token))
	})
}

func protectedEcho(g *Guard) http.Handler {
	return g.Protect(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func doProtected(t *testing.T, h http.Handler, method, cookie, header, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, "/projects", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	if header != "" {
		req.Header.Set(HeaderName, header)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body resp.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body.Code
}

func TestProtect(t *testing.T) {
	g := newTestGuard(t)
	h := protectedEcho(g)

	token, err := g.Issue()
	require.NoError(t, err)

	t.Run("GET exempt", func(t *testing.T) {
		rec := doProtected(t, h, http.MethodGet, "", "", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("bearer request exempt", func(t *testing.T) {
		rec := doProtected(t, h, http.MethodPost, "", "", "some-access-token")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("matching pair passes", func(t *testing.T) {
		rec := doProtected(t, h, http.MethodPost, token, token, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing both", func(t *testing.T) {
		rec := doProtected(t, h, http.MethodPost, "", "", "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, resp.CodeCSRFMissing, errCode(t, rec))
	})

	t.Run("missing header", func(t *testing.T) {
		rec := doProtected(t, h, http.MethodDelete, token, "", "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, resp.CodeCSRFMissing, errCode(t, rec))
	})

	t.Run("cookie and header differ", func(t *testing.T) {
		other, err := g.Issue()
		require.NoError(t, err)

		rec := doProtected(t, h, http.MethodPost, token, other, "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, resp.CodeCSRFInvalid, errCode(t, rec))
	})

	t.Run("matching but forged pair", func(t *testing.T) {
		forged := "Zm9yZ2Vk.Zm9yZ2Vk"

		rec := doProtected(t, h, http.MethodPut, forged, forged, "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, resp.CodeCSRFInvalid, errCode(t, rec))
	})
}

func TestSetCookie(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.Issue()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	g.SetCookie(rec, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, token, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}
