package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductCategory groups products under a lowercase unique name.
type ProductCategory struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;type:text;not null"`
	Description *string    `gorm:"column:description"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
}

// Discount is a percentage reduction applied to a product's list price.
type Discount struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Description *string         `gorm:"column:description"`
	Percent     decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time      `gorm:"column:deleted_at"`
}

// Product represents a catalog listing. Size, Color, and Weight are the
// default variant values applied when a cart line omits them.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string           `gorm:"column:sku;type:text;not null"`
	Name        string           `gorm:"column:name;type:text;not null"`
	Description *string          `gorm:"column:description"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryID"`
	DiscountID  *uuid.UUID       `gorm:"column:discount_id;type:uuid"`
	Discount    *Discount        `gorm:"foreignKey:DiscountID"`
	PriceCents  int              `gorm:"column:price_cents;not null"`
	Images      pq.StringArray   `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Size        *string          `gorm:"column:size"`
	Color       *string          `gorm:"column:color"`
	Weight      *string          `gorm:"column:weight"`
	Inventory   int              `gorm:"column:inventory_count;not null;default:0"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time       `gorm:"column:deleted_at"`
}
