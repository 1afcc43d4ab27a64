package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
)

// AddItemInput is the payload for adding a product to the cart. Size and
// Color default to the product's own values when omitted.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Size      *string   `json:"size,omitempty"`
	Color     *string   `json:"color,omitempty"`
}

// UpdateItemInput sets the absolute quantity on an existing line. A quantity
// of zero or less removes the line.
type UpdateItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
	Size      *string   `json:"size,omitempty"`
	Color     *string   `json:"color,omitempty"`
}

// RemoveItemInput identifies the line to remove.
type RemoveItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      *string   `json:"size,omitempty"`
	Color     *string   `json:"color,omitempty"`
}

// LineView is a cart line joined with its product summary. PriceCents is
// the product's current list price; UnitPriceCents is the snapshot the line
// was priced at.
type LineView struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	SKU               string    `json:"sku"`
	PriceCents        int       `json:"price_cents"`
	Images            []string  `json:"images"`
	Inventory         int       `json:"inventory_count"`
	Size              *string   `json:"size,omitempty"`
	Color             *string   `json:"color,omitempty"`
	Quantity          int       `json:"quantity"`
	UnitPriceCents    int       `json:"unit_price_cents"`
	LineSubtotalCents int       `json:"line_subtotal_cents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CartView is the cart as returned to clients. A user with no active session
// gets the synthetic empty view: nil session id, no items, zero total.
type CartView struct {
	SessionID  *uuid.UUID          `json:"session_id,omitempty"`
	Status     enums.SessionStatus `json:"status,omitempty"`
	Items      []LineView          `json:"items"`
	TotalCents int                 `json:"total_cents"`
}

// SessionDTO is the transport shape of a shopping session joined with its
// resolved line items.
type SessionDTO struct {
	ID         uuid.UUID           `json:"id"`
	UserID     uuid.UUID           `json:"user_id"`
	Status     enums.SessionStatus `json:"status"`
	Items      []LineView          `json:"items"`
	TotalCents int                 `json:"total_cents"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func emptyCartView() *CartView {
	return &CartView{Items: []LineView{}, TotalCents: 0}
}

func sessionFromModel(s *models.ShoppingSession) *SessionDTO {
	if s == nil {
		return nil
	}
	return &SessionDTO{
		ID:         s.ID,
		UserID:     s.UserID,
		Status:     s.Status,
		Items:      []LineView{},
		TotalCents: s.TotalCents,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
