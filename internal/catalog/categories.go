package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/outbox"
)

// CategoryService exposes category management operations.
type CategoryService interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name        string
	Description *string
}

// UpdateCategoryInput holds optional mutation values for a category.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type categoryService struct {
	repo     *Repository
	dbClient *db.Client
	outbox   eventEmitter
}

// NewCategoryService constructs a category service instance.
func NewCategoryService(repo *Repository, dbClient *db.Client, emitter eventEmitter) (CategoryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &categoryService{repo: repo, dbClient: dbClient, outbox: emitter}, nil
}

// CreateCategory persists a new category. Names are stored lowercase; an
// active duplicate is a Conflict.
func (s *categoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := normalizeCategoryName(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	// Pre-insert duplicate check. The partial unique index still catches a
	// concurrent insert of the same name.
	if _, err := s.repo.FindCategoryByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q already exists", name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category name")
	}

	category := &models.ProductCategory{
		Name:        name,
		Description: input.Description,
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateCategory(ctx, category); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCategoryCreated,
			AggregateType: enums.AggregateCategory,
			AggregateID:   category.ID,
			Data:          map[string]any{"name": category.Name},
			Version:       1,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_product_categories_name_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return CategoryFromModel(category), nil
}

func (s *categoryService) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find category")
	}
	return CategoryFromModel(category), nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *CategoryFromModel(&categories[i]))
	}
	return out, nil
}

// UpdateCategory applies the provided fields. Renames go through the same
// lowercase + duplicate rules as create.
func (s *categoryService) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := normalizeCategoryName(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) == 0 {
		return s.GetCategory(ctx, id)
	}

	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "ux_product_categories_name_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory soft-deletes. A category referenced by live products is a
// Conflict; deleting twice is a Conflict.
func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.repo.FindCategoryByIDIncludeDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find category")
	}
	if category.DeletedAt != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "category already deleted")
	}

	count, err := s.repo.CountLiveProductsInCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category has products").
			WithDetails(map[string]any{"product_count": count})
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SoftDeleteCategory(ctx, id, time.Now()); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCategoryDeleted,
			AggregateType: enums.AggregateCategory,
			AggregateID:   id,
			Data:          map[string]any{"name": category.Name},
			Version:       1,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "category already deleted")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}

func normalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
