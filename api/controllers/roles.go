package controllers

import (
	"net/http"

	"github.com/oselwa/storefront-backend/api/responses"
	"github.com/oselwa/storefront-backend/api/validators"
	"github.com/oselwa/storefront-backend/internal/admins"
	"github.com/oselwa/storefront-backend/pkg/logger"
)

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required"`
	GrantsAll   bool     `json:"grants_all"`
	Permissions []string `json:"permissions"`
}

func AdminCreateRole(svc admins.RoleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.CreateRole(r.Context(), admins.CreateRoleInput{
			Name:        payload.Name,
			GrantsAll:   payload.GrantsAll,
			Permissions: payload.Permissions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, role)
	}
}

func AdminListRoles(svc admins.RoleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles, err := svc.ListRoles(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roles)
	}
}

func AdminGetRole(svc admins.RoleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.GetRole(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, role)
	}
}
