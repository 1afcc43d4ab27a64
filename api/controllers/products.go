package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/oselwa/storefront-backend/api/responses"
	"github.com/oselwa/storefront-backend/api/validators"
	"github.com/oselwa/storefront-backend/internal/catalog"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/logger"
	"github.com/oselwa/storefront-backend/pkg/pagination"
)

type createProductRequest struct {
	SKU         string   `json:"sku" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description,omitempty"`
	CategoryID  string   `json:"category_id" validate:"required,uuid"`
	DiscountID  *string  `json:"discount_id,omitempty" validate:"omitempty,uuid"`
	PriceCents  int      `json:"price_cents" validate:"min=0"`
	Images      []string `json:"images,omitempty"`
	Size        *string  `json:"size,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Weight      *string  `json:"weight,omitempty"`
	Inventory   int      `json:"inventory_count" validate:"min=0"`
}

type updateProductRequest struct {
	SKU           *string   `json:"sku,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	CategoryID    *string   `json:"category_id,omitempty" validate:"omitempty,uuid"`
	DiscountID    *string   `json:"discount_id,omitempty" validate:"omitempty,uuid"`
	ClearDiscount bool      `json:"clear_discount,omitempty"`
	PriceCents    *int      `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	Images        *[]string `json:"images,omitempty"`
	Size          *string   `json:"size,omitempty"`
	Color         *string   `json:"color,omitempty"`
	Weight        *string   `json:"weight,omitempty"`
}

type updateInventoryRequest struct {
	Count *int `json:"inventory_count" validate:"required,min=0"`
}

// ListProducts serves the public paginated catalog with optional filters.
func ListProducts(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, page, err := parseProductQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProductsByCategory serves the public category browse page.
func ListProductsByCategory(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := pathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, page, err := parseProductQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProductsByCategory(r.Context(), categoryID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ListDiscountedProducts(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListDiscountedProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func AdminCreateProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminUpdateInventory sets the absolute stock count for a product.
func AdminUpdateInventory(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateInventoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateInventory(r.Context(), id, *payload.Count)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func (p createProductRequest) toInput() (catalog.CreateProductInput, error) {
	categoryID, err := uuid.Parse(p.CategoryID)
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
	}
	input := catalog.CreateProductInput{
		SKU:         strings.TrimSpace(p.SKU),
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		CategoryID:  categoryID,
		PriceCents:  p.PriceCents,
		Images:      p.Images,
		Size:        p.Size,
		Color:       p.Color,
		Weight:      p.Weight,
		Inventory:   p.Inventory,
	}
	if p.DiscountID != nil {
		discountID, err := uuid.Parse(*p.DiscountID)
		if err != nil {
			return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id")
		}
		input.DiscountID = &discountID
	}
	return input, nil
}

func (p updateProductRequest) toInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		ClearDiscount: p.ClearDiscount,
		PriceCents:    p.PriceCents,
		Images:        p.Images,
		Size:          p.Size,
		Color:         p.Color,
		Weight:        p.Weight,
	}
	if p.CategoryID != nil {
		categoryID, err := uuid.Parse(*p.CategoryID)
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &categoryID
	}
	if p.DiscountID != nil {
		discountID, err := uuid.Parse(*p.DiscountID)
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id")
		}
		input.DiscountID = &discountID
	}
	return input, nil
}

func parseProductQuery(r *http.Request) (catalog.ProductFilter, pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return catalog.ProductFilter{}, pagination.Params{}, err
	}
	page := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	filter := catalog.ProductFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return catalog.ProductFilter{}, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		filter.CategoryID = &id
	}
	if minPrice, err := queryIntPtr(r, "min_price_cents"); err != nil {
		return catalog.ProductFilter{}, pagination.Params{}, err
	} else {
		filter.MinPriceCents = minPrice
	}
	if maxPrice, err := queryIntPtr(r, "max_price_cents"); err != nil {
		return catalog.ProductFilter{}, pagination.Params{}, err
	} else {
		filter.MaxPriceCents = maxPrice
	}
	return filter, page, nil
}

func queryIntPtr(r *http.Request, key string) (*int, error) {
	if strings.TrimSpace(r.URL.Query().Get(key)) == "" {
		return nil, nil
	}
	value, err := validators.ParseQueryInt(r, key, 0, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
