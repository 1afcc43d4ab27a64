package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oselwa/storefront-backend/pkg/db/models"
)

// CategoryDTO is the transport shape for a product category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DiscountDTO is the transport shape for a discount.
type DiscountDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Percent     decimal.Decimal `json:"percent"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductDTO is the transport shape for a product. EffectivePriceCents is the
// list price after the attached discount, when one is live.
type ProductDTO struct {
	ID                  uuid.UUID    `json:"id"`
	SKU                 string       `json:"sku"`
	Name                string       `json:"name"`
	Description         *string      `json:"description,omitempty"`
	Category            *CategoryDTO `json:"category,omitempty"`
	CategoryID          uuid.UUID    `json:"category_id"`
	Discount            *DiscountDTO `json:"discount,omitempty"`
	PriceCents          int          `json:"price_cents"`
	EffectivePriceCents int          `json:"effective_price_cents"`
	Images              []string     `json:"images"`
	Size                *string      `json:"size,omitempty"`
	Color               *string      `json:"color,omitempty"`
	Weight              *string      `json:"weight,omitempty"`
	Inventory           int          `json:"inventory_count"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// ProductListResult is a page of products plus the next cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

func CategoryFromModel(c *models.ProductCategory) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func DiscountFromModel(d *models.Discount) *DiscountDTO {
	if d == nil {
		return nil
	}
	return &DiscountDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Percent:     d.Percent,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func ProductFromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:                  p.ID,
		SKU:                 p.SKU,
		Name:                p.Name,
		Description:         p.Description,
		CategoryID:          p.CategoryID,
		PriceCents:          p.PriceCents,
		EffectivePriceCents: EffectivePriceCents(p),
		Images:              append([]string{}, p.Images...),
		Size:                p.Size,
		Color:               p.Color,
		Weight:              p.Weight,
		Inventory:           p.Inventory,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = CategoryFromModel(p.Category)
	}
	if p.Discount != nil && p.Discount.DeletedAt == nil {
		dto.Discount = DiscountFromModel(p.Discount)
	}
	return dto
}
