package admins

import (
	"time"

	"github.com/google/uuid"

	"github.com/oselwa/storefront-backend/pkg/db/models"
)

// AdminDTO is the transport shape that omits sensitive credentials.
type AdminDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	RoleID      uuid.UUID  `json:"role_id"`
	RoleName    string     `json:"role_name,omitempty"`
	GrantsAll   bool       `json:"grants_all"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateAdminDTO holds the data required by the repo to persist a new admin.
type CreateAdminDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RoleID       uuid.UUID
	IsActive     *bool
}

func FromModel(a *models.AdminUser) *AdminDTO {
	if a == nil {
		return nil
	}

	dto := &AdminDTO{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		RoleID:      a.RoleID,
		Permissions: []string{},
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Role != nil {
		dto.RoleName = a.Role.Name
		dto.GrantsAll = a.Role.GrantsAll
		dto.Permissions = append([]string{}, a.Role.Permissions...)
	}
	return dto
}

func (c CreateAdminDTO) ToModel() *models.AdminUser {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.AdminUser{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		RoleID:       c.RoleID,
		IsActive:     isActive,
	}
}
