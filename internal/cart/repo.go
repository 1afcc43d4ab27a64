package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
)

// Repository exposes shopping session and cart line persistence. Soft-deleted
// rows are filtered explicitly on every read path.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindActiveSessionByUser returns the user's single active session.
func (r *Repository) FindActiveSessionByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingSession, error) {
	var session models.ShoppingSession
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, enums.SessionStatusActive).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession inserts a new active session for the user. Callers handle the
// unique-violation race by re-reading the winner.
func (r *Repository) CreateSession(ctx context.Context, session *models.ShoppingSession) (*models.ShoppingSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSessionTotal persists the recomputed cart total.
func (r *Repository) UpdateSessionTotal(ctx context.Context, sessionID uuid.UUID, totalCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.ShoppingSession{}).
		Where("id = ?", sessionID).
		UpdateColumn("total_cents", totalCents).Error
}

// UpdateSessionStatus transitions the session lifecycle state.
func (r *Repository) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status enums.SessionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ShoppingSession{}).
		Where("id = ? AND deleted_at IS NULL", sessionID).
		UpdateColumn("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListStaleActiveSessions returns active sessions untouched since the cutoff.
func (r *Repository) ListStaleActiveSessions(ctx context.Context, cutoff time.Time, limit int) ([]models.ShoppingSession, error) {
	var sessions []models.ShoppingSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ? AND deleted_at IS NULL", enums.SessionStatusActive, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// ListItems returns the live lines for a session, oldest first.
func (r *Repository) ListItems(ctx context.Context, sessionID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND deleted_at IS NULL", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindItemByVariant locates the live line matching (product, size, color).
// COALESCE folds NULL variant parts so the comparison works on both Postgres
// and the SQLite test harness.
func (r *Repository) FindItemByVariant(ctx context.Context, sessionID, productID uuid.UUID, size, color *string) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND product_id = ? AND deleted_at IS NULL", sessionID, productID).
		Where("COALESCE(size, '') = COALESCE(?, '')", size).
		Where("COALESCE(color, '') = COALESCE(?, '')", color).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem sets the line quantity and refreshes the price snapshot.
func (r *Repository) UpdateItem(ctx context.Context, id uuid.UUID, quantity, unitPriceCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":         quantity,
			"unit_price_cents": unitPriceCents,
		}).Error
}

// SoftDeleteItem removes a single line.
func (r *Repository) SoftDeleteItem(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDeleteAllItems removes every live line in the session and reports the
// number cleared.
func (r *Repository) SoftDeleteAllItems(ctx context.Context, sessionID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("session_id = ? AND deleted_at IS NULL", sessionID).
		UpdateColumn("deleted_at", at)
	return res.RowsAffected, res.Error
}
