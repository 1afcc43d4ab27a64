package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/outbox"
	"github.com/oselwa/storefront-backend/pkg/pagination"
)

// ProductService exposes product management and read operations.
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) (*ProductListResult, error)
	ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, page pagination.Params) (*ProductListResult, error)
	ListDiscountedProducts(ctx context.Context) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	UpdateInventory(ctx context.Context, id uuid.UUID, count int) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description *string
	CategoryID  uuid.UUID
	DiscountID  *uuid.UUID
	PriceCents  int
	Images      []string
	Size        *string
	Color       *string
	Weight      *string
	Inventory   int
}

// UpdateProductInput holds optional mutation values for a product. Nil means
// leave unchanged; a present pointer is applied as-is.
type UpdateProductInput struct {
	SKU           *string
	Name          *string
	Description   *string
	CategoryID    *uuid.UUID
	DiscountID    *uuid.UUID
	ClearDiscount bool
	PriceCents    *int
	Images        *[]string
	Size          *string
	Color         *string
	Weight        *string
}

type productService struct {
	repo     *Repository
	dbClient *db.Client
	outbox   eventEmitter
}

// NewProductService constructs a product service instance.
func NewProductService(repo *Repository, dbClient *db.Client, emitter eventEmitter) (ProductService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &productService{repo: repo, dbClient: dbClient, outbox: emitter}, nil
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Inventory < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory cannot be negative")
	}

	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find category")
	}
	if input.DiscountID != nil {
		if _, err := s.repo.FindDiscountByID(ctx, *input.DiscountID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find discount")
		}
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}

	product := &models.Product{
		SKU:         sku,
		Name:        name,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		DiscountID:  input.DiscountID,
		PriceCents:  input.PriceCents,
		Images:      pq.StringArray(images),
		Size:        input.Size,
		Color:       input.Color,
		Weight:      input.Weight,
		Inventory:   input.Inventory,
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductCreated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Data:          map[string]any{"sku": product.SKU, "name": product.Name},
			Version:       1,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_sku_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %q already in use", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}
	return ProductFromModel(product), nil
}

func (s *productService) ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) (*ProductListResult, error) {
	products, err := s.repo.ListProducts(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return buildProductPage(products, page), nil
}

func (s *productService) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, page pagination.Params) (*ProductListResult, error) {
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find category")
	}
	return s.ListProducts(ctx, ProductFilter{CategoryID: &categoryID}, page)
}

func (s *productService) ListDiscountedProducts(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.ListDiscountedProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list discounted products")
	}
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *ProductFromModel(&products[i]))
	}
	return out, nil
}

// UpdateProduct applies provided fields; omitted fields are unchanged.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}

	updates := map[string]any{}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		updates["sku"] = sku
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find category")
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.ClearDiscount {
		updates["discount_id"] = nil
	} else if input.DiscountID != nil {
		if _, err := s.repo.FindDiscountByID(ctx, *input.DiscountID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find discount")
		}
		updates["discount_id"] = *input.DiscountID
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.Images != nil {
		updates["images"] = pq.StringArray(*input.Images)
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.Weight != nil {
		updates["weight"] = *input.Weight
	}
	if len(updates) == 0 {
		return s.GetProduct(ctx, id)
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateProduct(ctx, id, updates); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductUpdated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Data:          map[string]any{"fields": updateKeys(updates)},
			Version:       1,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_sku_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.GetProduct(ctx, id)
}

// UpdateInventory sets the absolute on-hand count.
func (s *productService) UpdateInventory(ctx context.Context, id uuid.UUID, count int) (*ProductDTO, error) {
	if count < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory cannot be negative")
	}
	if err := s.repo.UpdateInventoryCount(ctx, id, count); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update inventory")
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes; deleting twice is a Conflict.
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindProductByIDIncludeDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}
	if product.DeletedAt != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "product already deleted")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SoftDeleteProduct(ctx, id, time.Now()); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductDeleted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Data:          map[string]any{"sku": product.SKU},
			Version:       1,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "product already deleted")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func buildProductPage(products []models.Product, page pagination.Params) *ProductListResult {
	limit := pagination.NormalizeLimit(page.Limit)
	result := &ProductListResult{Products: []ProductDTO{}}

	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}
	for i := range products {
		result.Products = append(result.Products, *ProductFromModel(&products[i]))
	}
	if hasMore && len(products) > 0 {
		last := products[len(products)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result
}

func updateKeys(updates map[string]any) []string {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	return keys
}
