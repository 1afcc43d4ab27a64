package admins

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
)

// Authorizer decides whether an admin may perform a permission-gated action.
type Authorizer interface {
	Authorize(ctx context.Context, adminID uuid.UUID, permission enums.Permission) (*models.AdminUser, error)
}

type adminLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
}

type authorizer struct {
	admins adminLoader
}

// NewAuthorizer constructs the permission oracle over the admins repo.
func NewAuthorizer(admins adminLoader) (Authorizer, error) {
	if admins == nil {
		return nil, fmt.Errorf("admins repository is required")
	}
	return &authorizer{admins: admins}, nil
}

// Authorize loads the admin with their role and grants when the role carries
// grants_all or the named permission tag. Inactive or missing admins are
// Unauthorized; a live admin without the tag is Forbidden.
func (a *authorizer) Authorize(ctx context.Context, adminID uuid.UUID, permission enums.Permission) (*models.AdminUser, error) {
	if !permission.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown permission %q", permission))
	}

	admin, err := a.admins.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load admin")
	}
	if !admin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin is inactive")
	}
	if admin.Role == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin has no role")
	}

	if admin.Role.GrantsAll {
		return admin, nil
	}
	for _, tag := range admin.Role.Permissions {
		if tag == permission.String() {
			return admin, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("missing permission %s", permission))
}
