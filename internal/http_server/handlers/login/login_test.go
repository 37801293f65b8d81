package login_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"projectboard/internal/auth"
	"projectboard/internal/http_server/handlers/login"
	"projectboard/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginerFunc func(ctx context.Context, email, password string) (models.TokenPair, error)

func (f loginerFunc) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	return f(ctx, email, password)
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestLoginHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := validator.New()

	t.Run("success", func(t *testing.T) {
		var gotEmail, gotPass string

		h := login.New(log, validate, loginerFunc(func(_ context.Context, email, password string) (models.TokenPair, error) {
			gotEmail, gotPass = email, password
			return models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
		}))

		rec := post(t, h, `{"email":"alice@x.com","password":"P@ssw0rd1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body login.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, "access", body.AccessToken)
		assert.Equal(t, "refresh", body.RefreshToken)

		assert.Equal(t, "alice@x.com", gotEmail)
		assert.Equal(t, "P@ssw0rd1", gotPass)
	})

	t.Run("bad credentials", func(t *testing.T) {
		h := login.New(log, validate, loginerFunc(func(context.Context, string, string) (models.TokenPair, error) {
			return models.TokenPair{}, auth.ErrInvalidCredentials
		}))

		rec := post(t, h, `{"email":"alice@x.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		h := login.New(log, validate, loginerFunc(func(context.Context, string, string) (models.TokenPair, error) {
			t.Fatal("loginer must not be called")
			return models.TokenPair{}, nil
		}))

		rec := post(t, h, `{"email":"not-an-email","password":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = post(t, h, `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
