package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"projectboard/internal/lib/jwt"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	nextID  int64
	byEmail map[string]models.User
	byID    map[int64]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		nextID:  1,
		byEmail: make(map[string]models.User),
		byID:    make(map[int64]models.User),
	}
}

func (f *fakeUsers) SaveUser(_ context.Context, email, username string, passHash []byte) (int64, error) {
	if _, ok := f.byEmail[email]; ok {
		return 0, storage.ErrUserExists
	}

	u := models.User{
		ID:       f.nextID,
		Email:    email,
		Username: username,
		PassHash: passHash,
	}
	f.nextID++
	f.byEmail[email] = u
	f.byID[u.ID] = u

	return u.ID, nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, _ int64) error { return nil }

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

type fakeSessions struct {
	tokens map[int64]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: make(map[int64]string)}
}

func (f *fakeSessions) SetRefreshToken(_ context.Context, userID int64, token string, _ time.Duration) error {
	f.tokens[userID] = token
	return nil
}

func (f *fakeSessions) RefreshToken(_ context.Context, userID int64) (string, error) {
	token, ok := f.tokens[userID]
	if !ok {
		return "", storage.ErrSessionNotFound
	}
	return token, nil
}

func (f *fakeSessions) DeleteRefreshToken(_ context.Context, userID int64) error {
	delete(f.tokens, userID)
	return nil
}

func newTestAuth(t *testing.T) (*Auth, *fakeUsers, *fakeSessions) {
	t.Helper()

	users := newFakeUsers()
	sessions := newFakeSessions()
	tokens := jwt.NewManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(log, users, users, sessions, tokens), users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	a, _, sessions := newTestAuth(t)
	ctx := context.Background()

	id, err := a.RegisterNewUser(ctx, "alice@x.com", "alice", "P@ssw0rd1")
	require.NoError(t, err)
	require.Positive(t, id)

	pair, err := a.Login(ctx, "alice@x.com", "P@ssw0rd1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// The cached token is exactly the one handed out.
	assert.Equal(t, pair.RefreshToken, sessions.tokens[id])
}

func TestRegister_Duplicate(t *testing.T) {
	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.RegisterNewUser(ctx, "alice@x.com", "alice", "P@ssw0rd1")
	require.NoError(t, err)

	_, err = a.RegisterNewUser(ctx, "alice@x.com", "alice2", "P@ssw0rd1")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin_BadCredentials(t *testing.T) {
	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.RegisterNewUser(ctx, "alice@x.com", "alice", "P@ssw0rd1")
	require.NoError(t, err)

	_, err = a.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Login(ctx, "nobody@x.com", "P@ssw0rd1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Rotates(t *testing.T) {
	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.RegisterNewUser(ctx, "alice@x.com", "alice", "P@ssw0rd1")
	require.NoError(t, err)

	pair, err := a.Login(ctx, "alice@x.com", "P@ssw0rd1")
	require.NoError(t, err)

	rotated, err := a.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)

	// The pre-rotation token is still signature-valid but must be
	// rejected: the cache only holds the new one.
	_, err = a.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestLogin_SupersedesEarlierSession(t *testing.T) {
	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.RegisterNewUser(ctx, "alice@x.com", "alice", "P@ssw0rd1")
	require.NoError(t, err)

	first, err := a.Login(ctx, "alice@x.com", "P@ssw0rd1")
	require.NoError(t, err)

	second, err := a.Login(ctx, "alice@x.com", "P@ssw0rd1")
	require.NoError(t, err)

	_, err = a.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout_RevokesSession(t *testing.T) {
	a, users, _ := newTestAuth(t)
	ctx := context.Background()

	id, err := a.RegisterNewUser(ctx, "alice@x.com", "alice", "P@ssw0rd1")
	require.NoError(t, err)

	pair, err := a.Login(ctx, "alice@x.com", "P@ssw0rd1")
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, id))

	// The refresh token fails because the cache lookup misses, not
	// because the signature is bad.
	_, err = a.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, ok := users.byID[id]
	assert.True(t, ok, "logout must not touch the user record")
}

func TestRefresh_GarbageToken(t *testing.T) {
	a, _, _ := newTestAuth(t)

	_, err := a.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
