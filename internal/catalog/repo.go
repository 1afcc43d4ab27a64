package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/pagination"
)

// Repository wires together category, product, and discount persistence.
// Soft-deleted rows are filtered explicitly on every read path.
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

// --- categories ---

func (r *Repository) CreateCategory(ctx context.Context, category *models.ProductCategory) (*models.ProductCategory, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.ProductCategory, error) {
	var category models.ProductCategory
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*models.ProductCategory, error) {
	var category models.ProductCategory
	if err := r.db.WithContext(ctx).
		Where("name = ? AND deleted_at IS NULL", strings.ToLower(name)).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.ProductCategory, error) {
	var categories []models.ProductCategory
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Order("id DESC").
		Find(&categories).Error
	return categories, err
}

func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductCategory{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(updates).Error
}

// SoftDeleteCategory stamps deleted_at; returns gorm.ErrRecordNotFound when
// the category is absent or already deleted.
func (r *Repository) SoftDeleteCategory(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ProductCategory{}).
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

// FindCategoryByIDIncludeDeleted loads the category regardless of soft-delete
// state so callers can distinguish missing from already-deleted.
func (r *Repository) FindCategoryByIDIncludeDeleted(ctx context.Context, id uuid.UUID) (*models.ProductCategory, error) {
	var category models.ProductCategory
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CountLiveProductsInCategory counts non-deleted products referencing the category.
func (r *Repository) CountLiveProductsInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ? AND deleted_at IS NULL", categoryID).
		Count(&count).Error
	return count, err
}

// --- products ---

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindProductByID loads the live product without associations.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductByIDIncludeDeleted loads the product regardless of soft-delete
// state so callers can distinguish missing from already-deleted.
func (r *Repository) FindProductByIDIncludeDeleted(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductDetail loads the live product with category and discount joined.
func (r *Repository) FindProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Discount").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductsByIDs loads live products keyed by the provided ids.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Discount").
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&products).Error
	return products, err
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	CategoryID    *uuid.UUID
	DiscountID    *uuid.UUID
	MinPriceCents *int
	MaxPriceCents *int
	Search        string
}

// ListProducts returns a page of live products, newest first, with category
// and discount joined for each row.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) ([]models.Product, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Discount").
		Where("deleted_at IS NULL")

	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.DiscountID != nil {
		q = q.Where("discount_id = ?", *filter.DiscountID)
	}
	if filter.MinPriceCents != nil {
		q = q.Where("price_cents >= ?", *filter.MinPriceCents)
	}
	if filter.MaxPriceCents != nil {
		q = q.Where("price_cents <= ?", *filter.MaxPriceCents)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"lower(name) LIKE ? OR lower(coalesce(description, '')) LIKE ? OR lower(sku) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if cursor != nil {
		q = q.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var products []models.Product
	err = q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit)).
		Find(&products).Error
	return products, err
}

// ListDiscountedProducts returns live products carrying an active discount.
func (r *Repository) ListDiscountedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Discount").
		Joins("JOIN discounts ON discounts.id = products.discount_id").
		Where("products.deleted_at IS NULL").
		Where("discounts.deleted_at IS NULL AND discounts.is_active").
		Order("products.created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(updates).Error
}

// SoftDeleteProduct stamps deleted_at; returns gorm.ErrRecordNotFound when
// the product is absent or already deleted.
func (r *Repository) SoftDeleteProduct(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
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

// UpdateInventoryCount sets the absolute inventory value.
func (r *Repository) UpdateInventoryCount(ctx context.Context, id uuid.UUID, count int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("inventory_count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --- discounts ---

func (r *Repository) CreateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

func (r *Repository) FindDiscountByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *Repository) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Find(&discounts).Error
	return discounts, err
}

// SoftDeleteDiscount stamps deleted_at and detaches live products referencing
// the discount.
func (r *Repository) SoftDeleteDiscount(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("discount_id = ? AND deleted_at IS NULL", id).
		UpdateColumn("discount_id", nil).Error
}
