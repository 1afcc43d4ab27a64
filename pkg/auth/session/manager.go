package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/oselwa/storefront-backend/pkg/config"
	"github.com/oselwa/storefront-backend/pkg/enums"
	redisclient "github.com/oselwa/storefront-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	RefreshTokenKey(role, actorID string) string
}

// Manager handles refresh token creation, storage, and rotation. Tokens are
// keyed by actor, so issuing a new one replaces any prior session for that
// actor instead of stacking sessions.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, role enums.ActorRole, actorID uuid.UUID) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Generate creates a refresh token for the provided actor and stores it in Redis.
func (m *Manager) Generate(ctx context.Context, role enums.ActorRole, actorID uuid.UUID) (string, error) {
	if !role.IsValid() || actorID == uuid.Nil {
		return "", fmt.Errorf("actor role and id are required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.RefreshTokenKey(role.String(), actorID.String()), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the provided refresh token and replaces it with a fresh one.
func (m *Manager) Rotate(ctx context.Context, role enums.ActorRole, actorID uuid.UUID, provided string) (string, error) {
	if strings.TrimSpace(provided) == "" {
		return "", ErrInvalidRefreshToken
	}

	key := m.keyer.RefreshTokenKey(role.String(), actorID.String())
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", ErrInvalidRefreshToken
	}

	newToken, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, key, newToken, m.ttl); err != nil {
		return "", err
	}

	return newToken, nil
}

// Revoke deletes the refresh mapping tied to the actor.
func (m *Manager) Revoke(ctx context.Context, role enums.ActorRole, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return fmt.Errorf("actor id is required")
	}
	return m.store.Del(ctx, m.keyer.RefreshTokenKey(role.String(), actorID.String()))
}

// HasSession reports whether the actor still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, role enums.ActorRole, actorID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil {
		return false, fmt.Errorf("actor id is required")
	}
	key := m.keyer.RefreshTokenKey(role.String(), actorID.String())
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
