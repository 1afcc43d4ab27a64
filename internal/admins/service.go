package admins

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
)

// RoleService manages the admin roles referenced by AdminSignup and the
// permission checks.
type RoleService interface {
	CreateRole(ctx context.Context, input CreateRoleInput) (*RoleDTO, error)
	GetRole(ctx context.Context, id uuid.UUID) (*RoleDTO, error)
	ListRoles(ctx context.Context) ([]RoleDTO, error)
}

// CreateRoleInput is the validated payload for a new role. Permissions must
// come from the closed permission set unless GrantsAll is set.
type CreateRoleInput struct {
	Name        string
	GrantsAll   bool
	Permissions []string
}

// RoleDTO is the transport shape of an admin role.
type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	GrantsAll   bool      `json:"grants_all"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type roleService struct {
	repo *Repository
}

// NewRoleService constructs a role service over the admins repo.
func NewRoleService(repo *Repository) (RoleService, error) {
	if repo == nil {
		return nil, fmt.Errorf("admins repository required")
	}
	return &roleService{repo: repo}, nil
}

// CreateRole persists a role after validating every permission tag against
// the known set. An active name duplicate is a Conflict.
func (s *roleService) CreateRole(ctx context.Context, input CreateRoleInput) (*RoleDTO, error) {
	name := strings.ToLower(strings.TrimSpace(input.Name))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name is required")
	}

	tags := make([]string, 0, len(input.Permissions))
	for _, raw := range input.Permissions {
		permission, err := enums.ParsePermission(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown permission %q", raw)).
				WithDetails(map[string]any{"allowed": enums.AllPermissions()})
		}
		tags = append(tags, permission.String())
	}

	role, err := s.repo.CreateRole(ctx, &models.AdminRole{
		Name:        name,
		GrantsAll:   input.GrantsAll,
		Permissions: pq.StringArray(tags),
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_admin_roles_name_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create role")
	}
	return roleFromModel(role), nil
}

func (s *roleService) GetRole(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find role")
	}
	return roleFromModel(role), nil
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleDTO, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list roles")
	}

	out := make([]RoleDTO, 0, len(roles))
	for i := range roles {
		out = append(out, *roleFromModel(&roles[i]))
	}
	return out, nil
}

func roleFromModel(role *models.AdminRole) *RoleDTO {
	return &RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		GrantsAll:   role.GrantsAll,
		Permissions: append([]string{}, role.Permissions...),
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}
