package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/outbox"
)

// DiscountService exposes the discount CRUD products validate against.
type DiscountService interface {
	CreateDiscount(ctx context.Context, input CreateDiscountInput) (*DiscountDTO, error)
	GetDiscount(ctx context.Context, id uuid.UUID) (*DiscountDTO, error)
	ListDiscounts(ctx context.Context) ([]DiscountDTO, error)
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
}

// CreateDiscountInput holds the validated payload to create a discount.
type CreateDiscountInput struct {
	Name        string
	Description *string
	Percent     decimal.Decimal
	IsActive    *bool
}

type discountService struct {
	repo     *Repository
	dbClient *db.Client
	outbox   eventEmitter
}

// NewDiscountService constructs a discount service instance.
func NewDiscountService(repo *Repository, dbClient *db.Client, emitter eventEmitter) (DiscountService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &discountService{repo: repo, dbClient: dbClient, outbox: emitter}, nil
}

func (s *discountService) CreateDiscount(ctx context.Context, input CreateDiscountInput) (*DiscountDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name is required")
	}
	if input.Percent.IsNegative() || input.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent must be between 0 and 100")
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	discount := &models.Discount{
		Name:        name,
		Description: input.Description,
		Percent:     input.Percent,
		IsActive:    isActive,
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateDiscount(ctx, discount); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDiscountCreated,
			AggregateType: enums.AggregateDiscount,
			AggregateID:   discount.ID,
			Data:          map[string]any{"name": discount.Name, "percent": discount.Percent.String()},
			Version:       1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create discount")
	}
	return DiscountFromModel(discount), nil
}

func (s *discountService) GetDiscount(ctx context.Context, id uuid.UUID) (*DiscountDTO, error) {
	discount, err := s.repo.FindDiscountByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find discount")
	}
	return DiscountFromModel(discount), nil
}

func (s *discountService) ListDiscounts(ctx context.Context) ([]DiscountDTO, error) {
	discounts, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list discounts")
	}
	out := make([]DiscountDTO, 0, len(discounts))
	for i := range discounts {
		out = append(out, *DiscountFromModel(&discounts[i]))
	}
	return out, nil
}

// DeleteDiscount soft-deletes and detaches live products referencing it.
func (s *discountService) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SoftDeleteDiscount(ctx, id, time.Now()); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDiscountDeleted,
			AggregateType: enums.AggregateDiscount,
			AggregateID:   id,
			Version:       1,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete discount")
	}
	return nil
}
