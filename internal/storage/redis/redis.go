package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projectboard/internal/storage"

	"github.com/redis/go-redis/v9"
)

// SessionCache holds the single currently-valid refresh token per user.
// Redis per-key operations are atomic, so concurrent logins race to
// last-write-wins without in-process locking.
type SessionCache struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*SessionCache, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SessionCache{
		client: client,
	}, nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// SetRefreshToken stores the refresh token for the user, replacing any
// previous entry. The overwrite is what enforces
// single-session-per-user: the old token stays cryptographically valid
// but can no longer pass a cache lookup.
func (c *SessionCache) SetRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	const op = "storage.redis.SetRefreshToken"

	if err := c.client.Set(ctx, sessionKey(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshToken returns the currently-valid refresh token for the user,
// or storage.ErrSessionNotFound if none is stored.
func (c *SessionCache) RefreshToken(ctx context.Context, userID int64) (string, error) {
	const op = "storage.redis.RefreshToken"

	token, err := c.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrSessionNotFound
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// DeleteRefreshToken revokes the user's session. The cache, not the
// token signature, is the source of truth for refresh revocation.
func (c *SessionCache) DeleteRefreshToken(ctx context.Context, userID int64) error {
	const op = "storage.redis.DeleteRefreshToken"

	if err := c.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *SessionCache) Close() {
	c.client.Close()
}
