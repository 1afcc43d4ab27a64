package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
)

const outboxEventsTable = `
CREATE TABLE IF NOT EXISTS outbox_events (
    id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    aggregate_type TEXT NOT NULL,
    aggregate_id TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME,
    published_at DATETIME,
    attempt_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT
);
`

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(outboxEventsTable).Error)
	return conn
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	actorID := uuid.New()
	sessionID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSessionAbandoned,
			AggregateType: enums.AggregateSession,
			AggregateID:   sessionID,
			Actor:         &ActorRef{ActorID: actorID, Role: "user"},
			Data:          map[string]any{"total_cents": 2500},
			Version:       1,
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	assert.Equal(t, enums.EventSessionAbandoned, row.EventType)
	assert.Equal(t, enums.AggregateSession, row.AggregateType)
	assert.Equal(t, sessionID, row.AggregateID)
	assert.Nil(t, row.PublishedAt)
	assert.Zero(t, row.AttemptCount)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.ActorID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.EqualValues(t, 2500, data["total_cents"])
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(setupOutboxTestDB(t)), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	event := DomainEvent{
		EventType:     enums.EventCartCleared,
		AggregateType: enums.AggregateSession,
		AggregateID:   uuid.New(),
		Data:          map[string]string{"reason": "user"},
	}

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.EmitIfNotExists(context.Background(), tx, event)
	}))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.EmitIfNotExists(context.Background(), tx, event)
	}))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFetchUnpublishedHonorsAttemptCap(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)

	fresh := seedOutboxEvent(t, conn, 0, nil)
	exhausted := seedOutboxEvent(t, conn, 5, nil)
	published := time.Now()
	seedOutboxEvent(t, conn, 0, &published)

	rows, err := repo.FetchUnpublished(10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh.ID, rows[0].ID)
	assert.NotEqual(t, exhausted.ID, rows[0].ID)
}

func TestMarkPublishedAndMarkFailed(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)

	event := seedOutboxEvent(t, conn, 0, nil)

	require.NoError(t, repo.MarkFailed(event.ID, errors.New("broker down")))

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "broker down", *row.LastError)
	assert.Nil(t, row.PublishedAt)

	require.NoError(t, repo.MarkPublished(event.ID))
	require.NoError(t, conn.First(&row, "id = ?", event.ID).Error)
	assert.NotNil(t, row.PublishedAt)
}

func TestDeletePublishedBefore(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()
	seedOutboxEvent(t, conn, 0, &old)
	keepPublished := seedOutboxEvent(t, conn, 0, &recent)
	keepPending := seedOutboxEvent(t, conn, 0, nil)

	pruned, err := repo.DeletePublishedBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.Contains(t, ids, keepPublished.ID)
	assert.Contains(t, ids, keepPending.ID)
}

func seedOutboxEvent(t *testing.T, conn *gorm.DB, attempts int, publishedAt *time.Time) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSessionAbandoned,
		AggregateType: enums.AggregateSession,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		AttemptCount:  attempts,
		PublishedAt:   publishedAt,
	}
	require.NoError(t, conn.Create(&event).Error)
	return event
}
