package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/internal/catalog"
	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/outbox"
)

// Service is the cart engine: session resolution, line-item upsert by
// variant, inventory checks, and total recomputation. Every mutation runs in
// a single transaction so the line write and the total update commit
// together.
type Service interface {
	GetOrCreateSession(ctx context.Context, userID uuid.UUID) (*SessionDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddToCart(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error)
	UpdateCartItem(ctx context.Context, userID uuid.UUID, input UpdateItemInput) (*CartView, error)
	RemoveFromCart(ctx context.Context, userID uuid.UUID, input RemoveItemInput) (*CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

type productReader interface {
	FindProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// sessionStore is the session resolution surface. It always runs on the base
// connection: a lost create race surfaces a unique violation, and on Postgres
// the recovery re-read only works outside the aborted transaction.
type sessionStore interface {
	FindActiveSessionByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingSession, error)
	CreateSession(ctx context.Context, session *models.ShoppingSession) (*models.ShoppingSession, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     *Repository
	sessions sessionStore
	products productReader
	dbClient *db.Client
	outbox   eventEmitter
}

// NewService constructs the cart engine.
func NewService(repo *Repository, products productReader, dbClient *db.Client, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{repo: repo, sessions: repo, products: products, dbClient: dbClient, outbox: emitter}, nil
}

// GetOrCreateSession finds the user's active session or creates one with a
// zero total, returning it joined with its resolved line items. Losing the
// create race falls back to the winner's row, so two concurrent calls
// converge on the same session id.
func (s *service) GetOrCreateSession(ctx context.Context, userID uuid.UUID) (*SessionDTO, error) {
	session, err := s.resolveSession(ctx, userID, true)
	if err != nil {
		return nil, asCartError(err, "resolve session")
	}

	view, err := s.buildView(ctx, session)
	if err != nil {
		return nil, err
	}

	dto := sessionFromModel(session)
	dto.Items = view.Items
	return dto, nil
}

// GetCart returns the active cart, or the synthetic empty view without
// persisting anything when the user has no active session.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	session, err := s.repo.FindActiveSessionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCartView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find session")
	}
	return s.buildView(ctx, session)
}

func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Inventory < input.Quantity {
		return nil, insufficientInventory(product, input.Quantity)
	}

	unitPrice := catalog.EffectivePriceCents(product)
	size, color := normalizeVariant(product, input.Size, input.Color)

	// Session resolution stays outside the transaction: the lost-race
	// recovery re-read cannot run inside a transaction a unique violation
	// has already aborted.
	session, err := s.resolveSession(ctx, userID, true)
	if err != nil {
		return nil, asCartError(err, "resolve session")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		line, err := r.FindItemByVariant(ctx, session.ID, product.ID, size, color)
		switch {
		case err == nil:
			// Merge: existing snapshot is refreshed to the current price.
			newQty := line.Quantity + input.Quantity
			if newQty > product.Inventory {
				return insufficientInventory(product, newQty)
			}
			if err := r.UpdateItem(ctx, line.ID, newQty, unitPrice); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			_, err := r.CreateItem(ctx, &models.CartItem{
				SessionID:      session.ID,
				ProductID:      product.ID,
				Size:           size,
				Color:          color,
				Quantity:       input.Quantity,
				UnitPriceCents: unitPrice,
			})
			if err != nil {
				return mapItemInsertError(err)
			}
		default:
			return err
		}

		return s.recomputeTotal(ctx, r, session.ID)
	})
	if err != nil {
		return nil, asCartError(err, "add to cart")
	}
	return s.viewForUser(ctx, userID)
}

func (s *service) UpdateCartItem(ctx context.Context, userID uuid.UUID, input UpdateItemInput) (*CartView, error) {
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	unitPrice := catalog.EffectivePriceCents(product)
	size, color := normalizeVariant(product, input.Size, input.Color)

	session, err := s.resolveSession(ctx, userID, false)
	if err != nil {
		return nil, asCartError(err, "resolve session")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		line, err := r.FindItemByVariant(ctx, session.ID, product.ID, size, color)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		if input.Quantity <= 0 {
			// Zero is the valid removal path, not an error.
			if err := r.SoftDeleteItem(ctx, line.ID, time.Now()); err != nil {
				return err
			}
		} else {
			if input.Quantity > product.Inventory {
				return insufficientInventory(product, input.Quantity)
			}
			if err := r.UpdateItem(ctx, line.ID, input.Quantity, unitPrice); err != nil {
				return err
			}
		}

		return s.recomputeTotal(ctx, r, session.ID)
	})
	if err != nil {
		return nil, asCartError(err, "update cart item")
	}
	return s.viewForUser(ctx, userID)
}

func (s *service) RemoveFromCart(ctx context.Context, userID uuid.UUID, input RemoveItemInput) (*CartView, error) {
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	size, color := normalizeVariant(product, input.Size, input.Color)

	session, err := s.resolveSession(ctx, userID, false)
	if err != nil {
		return nil, asCartError(err, "resolve session")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		line, err := r.FindItemByVariant(ctx, session.ID, product.ID, size, color)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		if err := r.SoftDeleteItem(ctx, line.ID, time.Now()); err != nil {
			return err
		}
		return s.recomputeTotal(ctx, r, session.ID)
	})
	if err != nil {
		return nil, asCartError(err, "remove from cart")
	}
	return s.viewForUser(ctx, userID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	session, err := s.resolveSession(ctx, userID, false)
	if err != nil {
		return nil, asCartError(err, "resolve session")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		cleared, err := r.SoftDeleteAllItems(ctx, session.ID, time.Now())
		if err != nil {
			return err
		}
		if err := r.UpdateSessionTotal(ctx, session.ID, 0); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartCleared,
			AggregateType: enums.AggregateSession,
			AggregateID:   session.ID,
			Actor:         &outbox.ActorRef{ActorID: userID, Role: enums.ActorRoleUser.String()},
			Data:          map[string]any{"lines_cleared": cleared},
			Version:       1,
		})
	})
	if err != nil {
		return nil, asCartError(err, "clear cart")
	}
	return s.viewForUser(ctx, userID)
}

// resolveSession finds the active session on the base connection; when
// create is set, a miss inserts a fresh one and a lost insert race re-reads
// the winner. Without create, a miss is NotFound. Mutations call this before
// opening their transaction: on Postgres a unique violation aborts the
// surrounding transaction, which would poison the recovery re-read.
func (s *service) resolveSession(ctx context.Context, userID uuid.UUID, create bool) (*models.ShoppingSession, error) {
	session, err := s.sessions.FindActiveSessionByUser(ctx, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !create {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart session")
	}

	fresh := &models.ShoppingSession{
		UserID:     userID,
		Status:     enums.SessionStatusActive,
		TotalCents: 0,
	}
	if _, err := s.sessions.CreateSession(ctx, fresh); err != nil {
		if db.IsUniqueViolation(err, "ux_shopping_sessions_user_active") {
			return s.sessions.FindActiveSessionByUser(ctx, userID)
		}
		return nil, err
	}
	return fresh, nil
}

// mapItemInsertError remaps the variant unique violation raised when two
// requests insert the same line concurrently.
func mapItemInsertError(err error) error {
	if db.IsUniqueViolation(err, "ux_cart_items_variant_active") {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart line was modified concurrently")
	}
	return err
}

// recomputeTotal re-derives the session total from its live lines.
func (s *service) recomputeTotal(ctx context.Context, r *Repository, sessionID uuid.UUID) error {
	items, err := r.ListItems(ctx, sessionID)
	if err != nil {
		return err
	}
	total := 0
	for _, item := range items {
		total += item.LineSubtotalCents()
	}
	return r.UpdateSessionTotal(ctx, sessionID, total)
}

func (s *service) viewForUser(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	session, err := s.repo.FindActiveSessionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCartView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find session")
	}
	return s.buildView(ctx, session)
}

// buildView joins lines with their product summaries via an explicit second
// query instead of relation loading.
func (s *service) buildView(ctx context.Context, session *models.ShoppingSession) (*CartView, error) {
	items, err := s.repo.ListItems(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	view := &CartView{
		SessionID:  &session.ID,
		Status:     session.Status,
		Items:      make([]LineView, 0, len(items)),
		TotalCents: session.TotalCents,
	}
	for _, item := range items {
		line := LineView{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Size:              item.Size,
			Color:             item.Color,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			LineSubtotalCents: item.LineSubtotalCents(),
			CreatedAt:         item.CreatedAt,
			UpdatedAt:         item.UpdatedAt,
		}
		if product, ok := byID[item.ProductID]; ok {
			line.ProductName = product.Name
			line.SKU = product.SKU
			line.PriceCents = product.PriceCents
			line.Images = append([]string{}, product.Images...)
			line.Inventory = product.Inventory
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}
	return product, nil
}

func normalizeVariant(product *models.Product, size, color *string) (*string, *string) {
	return variantValue(size, product.Size), variantValue(color, product.Color)
}

func variantValue(requested, productDefault *string) *string {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		trimmed := strings.TrimSpace(*requested)
		return &trimmed
	}
	return productDefault
}

func insufficientInventory(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient inventory").
		WithDetails(map[string]any{
			"product_id": product.ID.String(),
			"available":  product.Inventory,
			"requested":  requested,
		})
}

func asCartError(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
