package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/outbox"
	"github.com/oselwa/storefront-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS product_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	discounts := `
CREATE TABLE IF NOT EXISTS discounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  percent NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  category_id TEXT NOT NULL,
  discount_id TEXT,
  price_cents INTEGER NOT NULL,
  images TEXT NOT NULL DEFAULT '{}',
  size TEXT,
  color TEXT,
  weight TEXT,
  inventory_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	nameIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_product_categories_name_active
  ON product_categories (name)
  WHERE deleted_at IS NULL;`
	skuIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku_active
  ON products (sku)
  WHERE deleted_at IS NULL;`

	for _, stmt := range []string{categories, discounts, products, nameIndex, skuIndex} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type catalogFixture struct {
	conn       *gorm.DB
	categories CategoryService
	products   ProductService
	discounts  DiscountService
	emitter    *stubEmitter
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	client := db.NewWithConn(conn)
	emitter := &stubEmitter{}

	categories, err := NewCategoryService(repo, client, emitter)
	require.NoError(t, err)
	products, err := NewProductService(repo, client, emitter)
	require.NoError(t, err)
	discounts, err := NewDiscountService(repo, client, emitter)
	require.NoError(t, err)

	return &catalogFixture{
		conn:       conn,
		categories: categories,
		products:   products,
		discounts:  discounts,
		emitter:    emitter,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
	return typed
}

func strp(v string) *string {
	return &v
}

func intp(v int) *int {
	return &v
}

func TestCategoryServiceCreate_normalizesAndConflicts(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	created, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "  Apparel  "})
	require.NoError(t, err)
	assert.Equal(t, "apparel", created.Name)

	_, err = f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "APPAREL"})
	requireCode(t, err, pkgerrors.CodeConflict)

	_, err = f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "   "})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCategoryServiceUpdate_renameAndDuplicate(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	first, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "shoes"})
	require.NoError(t, err)
	second, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "hats"})
	require.NoError(t, err)

	renamed, err := f.categories.UpdateCategory(ctx, second.ID, UpdateCategoryInput{Name: strp("Caps")})
	require.NoError(t, err)
	assert.Equal(t, "caps", renamed.Name)

	_, err = f.categories.UpdateCategory(ctx, second.ID, UpdateCategoryInput{Name: strp("Shoes")})
	requireCode(t, err, pkgerrors.CodeConflict)

	// Empty update is a no-op returning the current row.
	same, err := f.categories.UpdateCategory(ctx, first.ID, UpdateCategoryInput{})
	require.NoError(t, err)
	assert.Equal(t, "shoes", same.Name)
}

func TestCategoryServiceDelete_blockedByLiveProducts(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "gear"})
	require.NoError(t, err)
	product, err := f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "GEAR-1",
		Name:       "Tent",
		CategoryID: category.ID,
		PriceCents: 10000,
	})
	require.NoError(t, err)

	err = f.categories.DeleteCategory(ctx, category.ID)
	typed := requireCode(t, err, pkgerrors.CodeConflict)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), details["product_count"])

	require.NoError(t, f.products.DeleteProduct(ctx, product.ID))
	require.NoError(t, f.categories.DeleteCategory(ctx, category.ID))

	// Second delete and subsequent reads observe the soft-deleted row.
	err = f.categories.DeleteCategory(ctx, category.ID)
	requireCode(t, err, pkgerrors.CodeConflict)
	_, err = f.categories.GetCategory(ctx, category.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	// The name frees up once the old category is gone.
	_, err = f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "gear"})
	require.NoError(t, err)
}

func TestProductServiceCreate_validation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)

	_, err = f.products.CreateProduct(ctx, CreateProductInput{Name: "Shirt", CategoryID: category.ID})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.products.CreateProduct(ctx, CreateProductInput{SKU: "S-1", Name: "Shirt", CategoryID: uuid.New()})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.products.CreateProduct(ctx, CreateProductInput{SKU: "S-1", Name: "Shirt", CategoryID: category.ID, PriceCents: -5})
	requireCode(t, err, pkgerrors.CodeValidation)

	missingDiscount := uuid.New()
	_, err = f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "S-1",
		Name:       "Shirt",
		CategoryID: category.ID,
		DiscountID: &missingDiscount,
	})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestProductServiceCreate_skuConflictAndReuseAfterDelete(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)

	first, err := f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "SHIRT-1",
		Name:       "Shirt",
		CategoryID: category.ID,
		PriceCents: 2500,
		Inventory:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2500, first.EffectivePriceCents)
	assert.Equal(t, []string{}, first.Images)

	_, err = f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "SHIRT-1",
		Name:       "Other Shirt",
		CategoryID: category.ID,
		PriceCents: 1000,
	})
	requireCode(t, err, pkgerrors.CodeConflict)

	require.NoError(t, f.products.DeleteProduct(ctx, first.ID))

	_, err = f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "SHIRT-1",
		Name:       "Replacement Shirt",
		CategoryID: category.ID,
		PriceCents: 1000,
	})
	require.NoError(t, err)
}

func TestProductServiceUpdate_partialSemantics(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)
	discount, err := f.discounts.CreateDiscount(ctx, CreateDiscountInput{Name: "sale", Percent: decimal.NewFromInt(10)})
	require.NoError(t, err)

	product, err := f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "PANT-1",
		Name:       "Pants",
		CategoryID: category.ID,
		DiscountID: &discount.ID,
		PriceCents: 4000,
		Size:       strp("32"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3600, product.EffectivePriceCents)

	// Only the name changes; everything else stays put.
	updated, err := f.products.UpdateProduct(ctx, product.ID, UpdateProductInput{Name: strp("Chinos")})
	require.NoError(t, err)
	assert.Equal(t, "Chinos", updated.Name)
	assert.Equal(t, 4000, updated.PriceCents)
	require.NotNil(t, updated.Size)
	assert.Equal(t, "32", *updated.Size)
	require.NotNil(t, updated.Discount)

	// ClearDiscount detaches without touching the price.
	updated, err = f.products.UpdateProduct(ctx, product.ID, UpdateProductInput{ClearDiscount: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Discount)
	assert.Equal(t, 4000, updated.EffectivePriceCents)

	_, err = f.products.UpdateProduct(ctx, product.ID, UpdateProductInput{PriceCents: intp(-1)})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.products.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: strp("Ghost")})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestProductServiceUpdate_skuConflict(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)

	_, err = f.products.CreateProduct(ctx, CreateProductInput{SKU: "A-1", Name: "A", CategoryID: category.ID})
	require.NoError(t, err)
	second, err := f.products.CreateProduct(ctx, CreateProductInput{SKU: "B-1", Name: "B", CategoryID: category.ID})
	require.NoError(t, err)

	_, err = f.products.UpdateProduct(ctx, second.ID, UpdateProductInput{SKU: strp("A-1")})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestProductServiceUpdateInventory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)
	product, err := f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "HAT-1",
		Name:       "Hat",
		CategoryID: category.ID,
		Inventory:  3,
	})
	require.NoError(t, err)

	updated, err := f.products.UpdateInventory(ctx, product.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Inventory)

	_, err = f.products.UpdateInventory(ctx, product.ID, -1)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.products.UpdateInventory(ctx, uuid.New(), 5)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestProductServiceList_paginationAndFilters(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	apparel, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)
	gear, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "gear"})
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	seed := func(sku, name string, categoryID uuid.UUID, priceCents int, offset time.Duration) {
		product := &models.Product{
			ID:         uuid.New(),
			SKU:        sku,
			Name:       name,
			CategoryID: categoryID,
			PriceCents: priceCents,
			CreatedAt:  base.Add(offset),
			UpdatedAt:  base.Add(offset),
		}
		require.NoError(t, f.conn.Create(product).Error)
	}
	seed("P-1", "Wool Socks", apparel.ID, 800, 0)
	seed("P-2", "Rain Jacket", apparel.ID, 9000, time.Minute)
	seed("P-3", "Camp Stove", gear.ID, 4500, 2*time.Minute)

	// Newest first, limit 2, cursor picks up the remaining row.
	page, err := f.products.ListProducts(ctx, ProductFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "P-3", page.Products[0].SKU)
	assert.Equal(t, "P-2", page.Products[1].SKU)
	require.NotNil(t, page.NextCursor)

	rest, err := f.products.ListProducts(ctx, ProductFilter{}, pagination.Params{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Products, 1)
	assert.Equal(t, "P-1", rest.Products[0].SKU)
	assert.Nil(t, rest.NextCursor)

	byCategory, err := f.products.ListProductsByCategory(ctx, apparel.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, byCategory.Products, 2)

	_, err = f.products.ListProductsByCategory(ctx, uuid.New(), pagination.Params{Limit: 10})
	requireCode(t, err, pkgerrors.CodeNotFound)

	minPrice := 1000
	filtered, err := f.products.ListProducts(ctx, ProductFilter{MinPriceCents: &minPrice}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, filtered.Products, 2)

	search, err := f.products.ListProducts(ctx, ProductFilter{Search: "jacket"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, search.Products, 1)
	assert.Equal(t, "P-2", search.Products[0].SKU)
}

func TestProductServiceListDiscounted(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)
	inactive := false
	active, err := f.discounts.CreateDiscount(ctx, CreateDiscountInput{Name: "live", Percent: decimal.NewFromInt(25)})
	require.NoError(t, err)
	paused, err := f.discounts.CreateDiscount(ctx, CreateDiscountInput{Name: "paused", Percent: decimal.NewFromInt(50), IsActive: &inactive})
	require.NoError(t, err)

	discounted, err := f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "D-1",
		Name:       "On Sale",
		CategoryID: category.ID,
		DiscountID: &active.ID,
		PriceCents: 1000,
	})
	require.NoError(t, err)
	_, err = f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "D-2",
		Name:       "Paused Sale",
		CategoryID: category.ID,
		DiscountID: &paused.ID,
		PriceCents: 1000,
	})
	require.NoError(t, err)
	_, err = f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "D-3",
		Name:       "Full Price",
		CategoryID: category.ID,
		PriceCents: 1000,
	})
	require.NoError(t, err)

	list, err := f.products.ListDiscountedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, discounted.ID, list[0].ID)
	assert.Equal(t, 750, list[0].EffectivePriceCents)
}

func TestDiscountService_lifecycle(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.discounts.CreateDiscount(ctx, CreateDiscountInput{Name: " ", Percent: decimal.NewFromInt(10)})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.discounts.CreateDiscount(ctx, CreateDiscountInput{Name: "overflow", Percent: decimal.NewFromInt(120)})
	requireCode(t, err, pkgerrors.CodeValidation)

	discount, err := f.discounts.CreateDiscount(ctx, CreateDiscountInput{Name: "spring", Percent: decimal.NewFromInt(15)})
	require.NoError(t, err)
	assert.True(t, discount.IsActive)

	category, err := f.categories.CreateCategory(ctx, CreateCategoryInput{Name: "apparel"})
	require.NoError(t, err)
	product, err := f.products.CreateProduct(ctx, CreateProductInput{
		SKU:        "SPR-1",
		Name:       "Spring Jacket",
		CategoryID: category.ID,
		DiscountID: &discount.ID,
		PriceCents: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1700, product.EffectivePriceCents)

	// Deleting the discount detaches it from live products.
	require.NoError(t, f.discounts.DeleteDiscount(ctx, discount.ID))

	reloaded, err := f.products.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Discount)
	assert.Equal(t, 2000, reloaded.EffectivePriceCents)

	err = f.discounts.DeleteDiscount(ctx, discount.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.discounts.GetDiscount(ctx, discount.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestEffectivePriceCents_rounding(t *testing.T) {
	discount := &models.Discount{Percent: decimal.NewFromInt(15), IsActive: true}
	product := &models.Product{PriceCents: 999, Discount: discount}
	assert.Equal(t, 849, EffectivePriceCents(product))

	half := &models.Discount{Percent: decimal.NewFromInt(50), IsActive: true}
	assert.Equal(t, 53, EffectivePriceCents(&models.Product{PriceCents: 105, Discount: half}))

	inactive := &models.Discount{Percent: decimal.NewFromInt(50), IsActive: false}
	assert.Equal(t, 105, EffectivePriceCents(&models.Product{PriceCents: 105, Discount: inactive}))

	assert.Equal(t, 100, EffectivePriceCents(&models.Product{PriceCents: 100}))
	assert.Equal(t, 0, EffectivePriceCents(nil))
}
