package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oselwa/storefront-backend/pkg/enums"
)

// ShoppingSession is a cart container. At most one active session exists per
// user; concurrent creates race on a partial unique index and re-read the
// winner.
type ShoppingSession struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status     enums.SessionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	TotalCents int                 `gorm:"column:total_cents;not null;default:0"`
	Items      []CartItem          `gorm:"foreignKey:SessionID"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  *time.Time          `gorm:"column:deleted_at"`
}

// CartItem is a product line inside a session. UnitPriceCents snapshots the
// effective price at the time the line was last touched; Size and Color form
// the variant key and are normalized to the product defaults when absent.
type CartItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      uuid.UUID  `gorm:"column:session_id;type:uuid;not null"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Product        *Product   `gorm:"foreignKey:ProductID"`
	Size           *string    `gorm:"column:size"`
	Color          *string    `gorm:"column:color"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      *time.Time `gorm:"column:deleted_at"`
}

// LineSubtotalCents returns the extended price for the line.
func (c CartItem) LineSubtotalCents() int {
	return c.UnitPriceCents * c.Quantity
}
