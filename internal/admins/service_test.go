package admins

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
)

func setupRoleTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:roles_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS admin_roles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  grants_all INTEGER NOT NULL DEFAULT 0,
  permissions TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_admin_roles_name_active
  ON admin_roles (name)
  WHERE deleted_at IS NULL;`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newRoleService(t *testing.T) RoleService {
	t.Helper()
	svc, err := NewRoleService(NewRepository(setupRoleTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestRoleServiceCreateRole(t *testing.T) {
	svc := newRoleService(t)

	role, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:        "  Catalog-Editor ",
		Permissions: []string{"manage_products", "manage_categories"},
	})
	require.NoError(t, err)
	assert.Equal(t, "catalog-editor", role.Name)
	assert.False(t, role.GrantsAll)
	assert.Equal(t, []string{"manage_products", "manage_categories"}, role.Permissions)
	assert.NotEqual(t, uuid.Nil, role.ID)
}

func TestRoleServiceCreateRoleRejectsUnknownPermission(t *testing.T) {
	svc := newRoleService(t)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:        "broken",
		Permissions: []string{"manage_products", "launch_rockets"},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "launch_rockets")
}

func TestRoleServiceCreateRoleRequiresName(t *testing.T) {
	svc := newRoleService(t)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{Name: "   "})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRoleServiceCreateRoleDuplicateNameConflicts(t *testing.T) {
	svc := newRoleService(t)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{Name: "support", GrantsAll: true})
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), CreateRoleInput{Name: "Support"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRoleServiceGetAndList(t *testing.T) {
	svc := newRoleService(t)

	created, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:        "viewer",
		Permissions: []string{"view_users"},
	})
	require.NoError(t, err)

	got, err := svc.GetRole(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{"view_users"}, got.Permissions)

	_, err = svc.GetRole(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "viewer", roles[0].Name)
}
