package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	"github.com/oselwa/storefront-backend/pkg/logger"
	"github.com/oselwa/storefront-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeSessionReader struct {
	sessions  []models.ShoppingSession
	err       error
	gotCutoff time.Time
	gotLimit  int
}

func (f *fakeSessionReader) ListStaleActiveSessions(_ context.Context, cutoff time.Time, limit int) ([]models.ShoppingSession, error) {
	f.gotCutoff = cutoff
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

type fakeStatusWriter struct {
	updated []uuid.UUID
	failFor uuid.UUID
}

func (f *fakeStatusWriter) UpdateSessionStatus(_ context.Context, sessionID uuid.UUID, status enums.SessionStatus) error {
	if status != enums.SessionStatusAbandoned {
		return errors.New("unexpected status")
	}
	if sessionID == f.failFor {
		return errors.New("write failed")
	}
	f.updated = append(f.updated, sessionID)
	return nil
}

type fakeOutboxEmitter struct {
	events []outbox.DomainEvent
}

// EmitIfNotExists mirrors the outbox dedupe key of event type plus aggregate.
func (f *fakeOutboxEmitter) EmitIfNotExists(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range f.events {
		if existing.EventType == event.EventType &&
			existing.AggregateType == event.AggregateType &&
			existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	f.events = append(f.events, event)
	return nil
}

type sessionAbandonJobTest struct {
	job     *sessionAbandonJob
	writer  *fakeStatusWriter
	emitter *fakeOutboxEmitter
}

func newSessionAbandonJobTest(t *testing.T, reader *fakeSessionReader) *sessionAbandonJobTest {
	t.Helper()

	writer := &fakeStatusWriter{}
	emitter := &fakeOutboxEmitter{}
	jobIface, err := NewSessionAbandonJob(SessionAbandonJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		DB:       fakeTxRunner{},
		Sessions: reader,
		Outbox:   emitter,
		RepoFactory: func(tx *gorm.DB) sessionStatusWriter {
			return writer
		},
	})
	if err != nil {
		t.Fatalf("NewSessionAbandonJob: %v", err)
	}
	job, ok := jobIface.(*sessionAbandonJob)
	if !ok {
		t.Fatalf("expected sessionAbandonJob, got %T", jobIface)
	}
	return &sessionAbandonJobTest{job: job, writer: writer, emitter: emitter}
}

func TestSessionAbandonJobMarksStaleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	lastTouched := now.Add(-96 * time.Hour)
	sessionA := models.ShoppingSession{ID: uuid.New(), UserID: uuid.New(), TotalCents: 2500, UpdatedAt: lastTouched}
	sessionB := models.ShoppingSession{ID: uuid.New(), UserID: uuid.New(), TotalCents: 0, UpdatedAt: lastTouched}

	reader := &fakeSessionReader{sessions: []models.ShoppingSession{sessionA, sessionB}}
	helper := newSessionAbandonJobTest(t, reader)
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.Add(-defaultAbandonAfter)
	if !reader.gotCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, reader.gotCutoff)
	}
	if reader.gotLimit != abandonBatchSize {
		t.Fatalf("expected limit %d, got %d", abandonBatchSize, reader.gotLimit)
	}
	if len(helper.writer.updated) != 2 {
		t.Fatalf("expected 2 sessions abandoned, got %d", len(helper.writer.updated))
	}
	if len(helper.emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(helper.emitter.events))
	}

	event := helper.emitter.events[0]
	if event.EventType != enums.EventSessionAbandoned {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.AggregateID != sessionA.ID {
		t.Fatalf("unexpected aggregate id: %s", event.AggregateID)
	}
	payload, ok := event.Data.(SessionAbandonedEvent)
	if !ok {
		t.Fatalf("expected SessionAbandonedEvent payload, got %T", event.Data)
	}
	if payload.UserID != sessionA.UserID || payload.TotalCents != 2500 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if !payload.LastActivityAt.Equal(lastTouched) {
		t.Fatalf("expected last activity %s, got %s", lastTouched, payload.LastActivityAt)
	}
}

func TestSessionAbandonJobContinuesPastFailures(t *testing.T) {
	broken := models.ShoppingSession{ID: uuid.New(), UserID: uuid.New()}
	healthy := models.ShoppingSession{ID: uuid.New(), UserID: uuid.New()}

	reader := &fakeSessionReader{sessions: []models.ShoppingSession{broken, healthy}}
	helper := newSessionAbandonJobTest(t, reader)
	helper.writer.failFor = broken.ID

	err := helper.job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(helper.writer.updated) != 1 || helper.writer.updated[0] != healthy.ID {
		t.Fatalf("expected healthy session abandoned, got %v", helper.writer.updated)
	}
	if len(helper.emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.emitter.events))
	}
}

func TestSessionAbandonJobRetryDoesNotDuplicateEvents(t *testing.T) {
	session := models.ShoppingSession{ID: uuid.New(), UserID: uuid.New(), TotalCents: 1200}

	reader := &fakeSessionReader{sessions: []models.ShoppingSession{session}}
	helper := newSessionAbandonJobTest(t, reader)

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// A second sweep can pick up the same session again when the status write
	// never committed; the outbox row must stay unique per session.
	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(helper.emitter.events) != 1 {
		t.Fatalf("expected 1 event across retries, got %d", len(helper.emitter.events))
	}
}

func TestSessionAbandonJobPropagatesReaderError(t *testing.T) {
	reader := &fakeSessionReader{err: errors.New("db down")}
	helper := newSessionAbandonJobTest(t, reader)

	if err := helper.job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(helper.emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.emitter.events))
	}
}
