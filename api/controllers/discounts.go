package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/oselwa/storefront-backend/api/responses"
	"github.com/oselwa/storefront-backend/api/validators"
	"github.com/oselwa/storefront-backend/internal/catalog"
	"github.com/oselwa/storefront-backend/pkg/logger"
)

type createDiscountRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Percent     decimal.Decimal `json:"percent"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

func AdminCreateDiscount(svc catalog.DiscountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discount, err := svc.CreateDiscount(r.Context(), catalog.CreateDiscountInput{
			Name:        payload.Name,
			Description: payload.Description,
			Percent:     payload.Percent,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

func AdminListDiscounts(svc catalog.DiscountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		discounts, err := svc.ListDiscounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discounts)
	}
}

func AdminGetDiscount(svc catalog.DiscountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discount, err := svc.GetDiscount(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discount)
	}
}

func AdminDeleteDiscount(svc catalog.DiscountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteDiscount(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
