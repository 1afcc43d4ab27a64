package admins

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/pkg/db/models"
)

// Repository exposes admin user and role persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an admins repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new admin user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateAdminDTO) (*models.AdminUser, error) {
	admin := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// FindByEmail retrieves the live admin matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).
		Where("lower(email) = lower(?) AND deleted_at IS NULL", email).
		First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByID loads a live admin with their role preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// UpdateLastLogin refreshes the admin's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// FindRoleByID loads a live role by its UUID.
func (r *Repository) FindRoleByID(ctx context.Context, id uuid.UUID) (*models.AdminRole, error) {
	var role models.AdminRole
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindRoleByName loads a live role by its case-insensitive name.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (*models.AdminRole, error) {
	var role models.AdminRole
	if err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?) AND deleted_at IS NULL", name).
		First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a new admin role.
func (r *Repository) CreateRole(ctx context.Context, role *models.AdminRole) (*models.AdminRole, error) {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// ListRoles returns live roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]models.AdminRole, error) {
	var roles []models.AdminRole
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}
