package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"projectboard/internal/lib/jwt"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

// Auth owns the session lifecycle: registration, login, refresh-token
// rotation and logout. The session cache holds the single valid refresh
// token per user; a token that fails the cache comparison is dead even
// while its signature still verifies.
type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	sessions    SessionStore
	tokens      *jwt.Manager
}

type UserSaver interface {
	SaveUser(ctx context.Context, email string, username string, passHash []byte) (uid int64, err error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
}

type SessionStore interface {
	SetRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error
	RefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	sessions SessionStore,
	tokens *jwt.Manager,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		sessions:    sessions,
		tokens:      tokens,
	}
}

func (a *Auth) RegisterNewUser(
	ctx context.Context,
	email string,
	username string,
	pass string,
) (int64, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("Registering new user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.SaveUser(ctx, email, username, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("User already exists")

			return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("Failed to save user", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// Login checks the credentials, mints a token pair and stores the
// refresh token, overwriting any session from an earlier login.
func (a *Auth) Login(
	ctx context.Context,
	email, password string,
) (models.TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.TokenPair{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return models.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := a.issueSession(ctx, user)
	if err != nil {
		log.Error("failed to issue session", sl.Err(err))
		return models.TokenPair{}, err
	}

	if err := a.usrSaver.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to record last login", sl.Err(err))
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return pair, nil
}

// Refresh rotates the token pair. The presented token must verify
// cryptographically AND match the cached token for its user; a token
// rotated out by a later login, or removed by logout, fails the cache
// comparison regardless of its signature.
func (a *Auth) Refresh(
	ctx context.Context,
	rawRefreshToken string,
) (models.TokenPair, error) {
	const op = "auth.Refresh"

	log := a.log.With(
		slog.String("op", op),
	)

	identity, err := a.tokens.VerifyRefresh(rawRefreshToken)
	if err != nil {
		log.Warn("refresh token rejected", sl.Err(err))
		return models.TokenPair{}, ErrInvalidCredentials
	}

	stored, err := a.sessions.RefreshToken(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			log.Warn("no active session for refresh", slog.Int64("uid", identity.UserID))
			return models.TokenPair{}, ErrInvalidCredentials
		}

		log.Error("failed to read session cache", sl.Err(err))
		return models.TokenPair{}, err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(rawRefreshToken)) != 1 {
		log.Warn("refresh token superseded", slog.Int64("uid", identity.UserID))
		return models.TokenPair{}, ErrInvalidCredentials
	}

	user, err := a.usrProvider.UserByID(ctx, identity.UserID)
	if err != nil {
		log.Warn("failed to load user for refresh", sl.Err(err))
		return models.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := a.issueSession(ctx, user)
	if err != nil {
		log.Error("failed to rotate session", sl.Err(err))
		return models.TokenPair{}, err
	}

	log.Info("refresh successful", slog.Int64("uid", user.ID))

	return pair, nil
}

// Logout revokes the user's session immediately by deleting the cache
// entry. userID comes from the caller's verified access token.
func (a *Auth) Logout(
	ctx context.Context,
	userID int64,
) error {
	const op = "auth.Logout"

	log := a.log.With(
		slog.String("op", op),
	)

	if err := a.sessions.DeleteRefreshToken(ctx, userID); err != nil {
		log.Error("failed to delete session", sl.Err(err))
		return err
	}

	log.Info("logout successful", slog.Int64("uid", userID))

	return nil
}

func (a *Auth) issueSession(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := a.tokens.NewPair(models.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	err = a.sessions.SetRefreshToken(ctx, user.ID, pair.RefreshToken, a.tokens.RefreshTTL())
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}
