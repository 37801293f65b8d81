package jwt

import (
	"testing"
	"time"

	"projectboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPair_RoundTrip(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	identity := models.Identity{
		UserID:   42,
		Username: "alice",
		Email:    "alice@x.com",
	}

	pair, err := m.NewPair(identity)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	got, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	got, err = m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestVerify_DistinctSecrets(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := m.NewPair(models.Identity{UserID: 1, Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)

	// An access token must never pass refresh verification, and vice versa.
	_, err = m.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	verifier := NewManager("other-secret", "another-secret", 15*time.Minute, time.Hour)

	pair, err := issuer.NewPair(models.Identity{UserID: 1, Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)

	_, err = verifier.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	pair, err := m.NewPair(models.Identity{UserID: 1, Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)

	// Expiry must be reported as expired, never as invalid.
	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = m.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_Malformed(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := m.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}
