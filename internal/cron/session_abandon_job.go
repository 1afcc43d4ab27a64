package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/internal/cart"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	"github.com/oselwa/storefront-backend/pkg/logger"
	"github.com/oselwa/storefront-backend/pkg/outbox"
)

const (
	defaultAbandonAfter = 72 * time.Hour
	abandonBatchSize    = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// outboxEmitter deduplicates per aggregate so a sweep retried after a partial
// failure does not enqueue a second abandonment event for the same session.
type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type staleSessionReader interface {
	ListStaleActiveSessions(ctx context.Context, cutoff time.Time, limit int) ([]models.ShoppingSession, error)
}

type sessionStatusWriter interface {
	UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status enums.SessionStatus) error
}

type sessionRepoFactory func(tx *gorm.DB) sessionStatusWriter

func defaultSessionRepo(tx *gorm.DB) sessionStatusWriter {
	return cart.NewRepository(tx)
}

// SessionAbandonJobParams configure the stale cart sweeper.
type SessionAbandonJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Sessions     staleSessionReader
	Outbox       outboxEmitter
	AbandonAfter time.Duration
	RepoFactory  sessionRepoFactory
}

// NewSessionAbandonJob builds the job that marks idle active sessions
// abandoned and emits the corresponding domain event.
func NewSessionAbandonJob(params SessionAbandonJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	abandonAfter := params.AbandonAfter
	if abandonAfter <= 0 {
		abandonAfter = defaultAbandonAfter
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultSessionRepo
	}
	return &sessionAbandonJob{
		logg:         params.Logger,
		db:           params.DB,
		sessions:     params.Sessions,
		outbox:       params.Outbox,
		abandonAfter: abandonAfter,
		repoFactory:  repoFactory,
		now:          time.Now,
	}, nil
}

type sessionAbandonJob struct {
	logg         *logger.Logger
	db           txRunner
	sessions     staleSessionReader
	outbox       outboxEmitter
	abandonAfter time.Duration
	repoFactory  sessionRepoFactory
	now          func() time.Time
}

func (j *sessionAbandonJob) Name() string { return "session-abandon" }

func (j *sessionAbandonJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.abandonAfter)
	stale, err := j.sessions.ListStaleActiveSessions(ctx, cutoff, abandonBatchSize)
	if err != nil {
		return fmt.Errorf("query stale sessions: %w", err)
	}

	var errs []error
	abandoned := 0
	for _, session := range stale {
		if err := j.abandonSession(ctx, session); err != nil {
			errs = append(errs, fmt.Errorf("abandon session %s: %w", session.ID, err))
			continue
		}
		abandoned++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"candidate": len(stale),
		"abandoned": abandoned,
	})
	j.logg.Info(logCtx, "session abandonment sweep complete")
	return multierr.Combine(errs...)
}

func (j *sessionAbandonJob) abandonSession(ctx context.Context, session models.ShoppingSession) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.repoFactory(tx).UpdateSessionStatus(ctx, session.ID, enums.SessionStatusAbandoned); err != nil {
			return err
		}
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionAbandoned,
			AggregateType: enums.AggregateSession,
			AggregateID:   session.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: SessionAbandonedEvent{
				SessionID:      session.ID,
				UserID:         session.UserID,
				TotalCents:     session.TotalCents,
				LastActivityAt: session.UpdatedAt,
			},
		})
	})
}

// SessionAbandonedEvent carries the payload for abandoned carts.
type SessionAbandonedEvent struct {
	SessionID      uuid.UUID `json:"sessionId"`
	UserID         uuid.UUID `json:"userId"`
	TotalCents     int       `json:"totalCents"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}
