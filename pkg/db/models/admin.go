package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AdminRole names a set of permissions. A role with GrantsAll set bypasses
// per-permission checks entirely.
type AdminRole struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;type:text;not null"`
	GrantsAll   bool           `gorm:"column:grants_all;not null;default:false"`
	Permissions pq.StringArray `gorm:"column:permissions;type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time     `gorm:"column:deleted_at"`
}

// AdminUser represents a back-office operator bound to a role.
type AdminUser struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	RoleID       uuid.UUID  `gorm:"column:role_id;type:uuid;not null"`
	Role         *AdminRole `gorm:"foreignKey:RoleID"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}
