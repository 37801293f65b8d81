package roles_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"projectboard/internal/access"
	resp "projectboard/internal/lib/api/response"
	"projectboard/internal/lib/jwt"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollab struct {
	role     models.Role
	accepted bool
}

type fakeStore struct {
	users   map[int64]models.User
	owners  map[int64]int64
	collabs map[[2]int64]fakeCollab
}

func (f *fakeStore) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) ProjectOwner(_ context.Context, projectID int64) (int64, error) {
	owner, ok := f.owners[projectID]
	if !ok {
		return 0, storage.ErrProjectNotFound
	}
	return owner, nil
}

func (f *fakeStore) AcceptedCollaboration(_ context.Context, projectID, userID int64) (models.Collaboration, error) {
	c, ok := f.collabs[[2]int64{projectID, userID}]
	if !ok || !c.accepted {
		return models.Collaboration{}, storage.ErrCollaborationMissing
	}
	return models.Collaboration{ProjectID: projectID, UserID: userID, Role: c.role}, nil
}

// newTestRouter wires the real authenticate/require chain the way the
// server does, against an in-memory store.
func newTestRouter(t *testing.T, store *fakeStore, tokens *jwt.Manager) chi.Router {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := access.NewResolver(store, store)

	router := chi.NewRouter()
	router.Route("/projects/{projectID}", func(r chi.Router) {
		r.Use(authn.Authenticate(log, tokens, store))

		r.With(roles.Require(log, resolver, models.RoleOwner, models.RoleEditor, models.RoleViewer)).
			Get("/", func(w http.ResponseWriter, r *http.Request) {
				role, _ := roles.FromContext(r.Context())
				_ = json.NewEncoder(w).Encode(map[string]string{"role": string(role)})
			})

		r.With(roles.Require(log, resolver, models.RoleOwner)).
			Delete("/", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
	})

	return router
}

func bearerFor(t *testing.T, tokens *jwt.Manager, u models.User) string {
	t.Helper()

	pair, err := tokens.NewPair(models.Identity{UserID: u.ID, Username: u.Username, Email: u.Email})
	require.NoError(t, err)

	return "Bearer " + pair.AccessToken
}

func TestRequire(t *testing.T) {
	tokens := jwt.NewManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	alice := models.User{ID: 1, Username: "alice", Email: "alice@x.com"}
	bob := models.User{ID: 2, Username: "bob", Email: "bob@x.com"}
	carol := models.User{ID: 3, Username: "carol", Email: "carol@x.com"}

	store := &fakeStore{
		users:  map[int64]models.User{1: alice, 2: bob, 3: carol},
		owners: map[int64]int64{10: alice.ID},
		collabs: map[[2]int64]fakeCollab{
			{10, bob.ID}:   {role: models.RoleViewer, accepted: true},
			{10, carol.ID}: {role: models.RoleEditor, accepted: false},
		},
	}

	router := newTestRouter(t, store, tokens)

	do := func(method, path, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	roleOf := func(t *testing.T, rec *httptest.ResponseRecorder) string {
		t.Helper()
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return body["role"]
	}

	t.Run("owner gets owner role", func(t *testing.T) {
		rec := do(http.MethodGet, "/projects/10", bearerFor(t, tokens, alice))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "owner", roleOf(t, rec))
	})

	t.Run("accepted viewer can read", func(t *testing.T) {
		rec := do(http.MethodGet, "/projects/10", bearerFor(t, tokens, bob))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "viewer", roleOf(t, rec))
	})

	t.Run("viewer cannot delete", func(t *testing.T) {
		rec := do(http.MethodDelete, "/projects/10", bearerFor(t, tokens, bob))
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body resp.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, resp.CodeForbidden, body.Code)
	})

	t.Run("pending invite grants nothing", func(t *testing.T) {
		rec := do(http.MethodGet, "/projects/10", bearerFor(t, tokens, carol))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("accepting the invite grants the role", func(t *testing.T) {
		store.collabs[[2]int64{10, carol.ID}] = fakeCollab{role: models.RoleEditor, accepted: true}
		defer func() {
			store.collabs[[2]int64{10, carol.ID}] = fakeCollab{role: models.RoleEditor, accepted: false}
		}()

		rec := do(http.MethodGet, "/projects/10", bearerFor(t, tokens, carol))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "editor", roleOf(t, rec))
	})

	t.Run("missing project is 404 even unauthorized", func(t *testing.T) {
		rec := do(http.MethodGet, "/projects/999", bearerFor(t, tokens, carol))
		require.Equal(t, http.StatusNotFound, rec.Code)

		var body resp.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, resp.CodeNotFound, body.Code)
	})

	t.Run("no token is 401", func(t *testing.T) {
		rec := do(http.MethodGet, "/projects/10", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("owner can delete", func(t *testing.T) {
		rec := do(http.MethodDelete, "/projects/10", bearerFor(t, tokens, alice))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
