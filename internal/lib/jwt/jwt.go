package jwt

import (
	"errors"
	"fmt"
	"time"

	"projectboard/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers malformed tokens, wrong signatures and wrong
	// signing methods.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is reported only for tokens whose signature checks
	// out but whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

type claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and verifies access/refresh token pairs. The two token
// kinds are signed with distinct secrets so one can never stand in for
// the other.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// NewPair mints a signed access/refresh pair for the identity. Persisting
// the refresh token is the caller's responsibility.
func (m *Manager) NewPair(identity models.Identity) (models.TokenPair, error) {
	const op = "jwt.NewPair"

	access, err := m.sign(identity, m.accessSecret, m.accessTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := m.sign(identity, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (m *Manager) VerifyAccess(token string) (models.Identity, error) {
	return verify(token, m.accessSecret)
}

func (m *Manager) VerifyRefresh(token string) (models.Identity, error) {
	return verify(token, m.refreshSecret)
}

func (m *Manager) sign(identity models.Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: identity.Username,
		Email:    identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps every token distinct even when two are minted
			// within the same second, so rotation always invalidates the
			// previous refresh token.
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", identity.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func verify(token string, secret []byte) (models.Identity, error) {
	const op = "jwt.verify"

	var c claims

	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, ErrTokenExpired
		}
		return models.Identity{}, ErrTokenInvalid
	}

	if !parsed.Valid {
		return models.Identity{}, ErrTokenInvalid
	}

	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil || userID <= 0 {
		return models.Identity{}, ErrTokenInvalid
	}

	return models.Identity{
		UserID:   userID,
		Username: c.Username,
		Email:    c.Email,
	}, nil
}
