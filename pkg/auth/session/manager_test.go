package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/oselwa/storefront-backend/pkg/enums"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) RefreshTokenKey(role, actorID string) string {
	return fmt.Sprintf("refresh:%s:%s", role, actorID)
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	ctx := context.Background()
	actorID := uuid.New()
	key := store.RefreshTokenKey(enums.ActorRoleUser.String(), actorID.String())

	token, err := manager.Generate(ctx, enums.ActorRoleUser, actorID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data[key]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}

	if _, err := manager.Rotate(ctx, enums.ActorRoleUser, actorID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newToken, err := manager.Rotate(ctx, enums.ActorRoleUser, actorID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newToken == token {
		t.Fatal("rotate returned the same token")
	}
	if stored := store.data[key]; stored != newToken {
		t.Fatalf("expected new token stored, got %q", stored)
	}
}

func TestManagerRotateMissingSession(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	_, err := manager.Rotate(context.Background(), enums.ActorRoleUser, uuid.New(), "anything")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	ctx := context.Background()
	actorID := uuid.New()

	ok, err := manager.HasSession(ctx, enums.ActorRoleAdmin, actorID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("expected no session before generate")
	}

	if _, err := manager.Generate(ctx, enums.ActorRoleAdmin, actorID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	ok, err = manager.HasSession(ctx, enums.ActorRoleAdmin, actorID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected session after generate")
	}

	if err := manager.Revoke(ctx, enums.ActorRoleAdmin, actorID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected store emptied, got %d keys", len(store.data))
	}
}
