package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oselwa/storefront-backend/internal/admins"
	"github.com/oselwa/storefront-backend/internal/users"
	pkgAuth "github.com/oselwa/storefront-backend/pkg/auth"
	"github.com/oselwa/storefront-backend/pkg/auth/session"
	"github.com/oselwa/storefront-backend/pkg/config"
	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/db/models"
	"github.com/oselwa/storefront-backend/pkg/enums"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/outbox"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	adminRoles := `
CREATE TABLE IF NOT EXISTS admin_roles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  grants_all INTEGER NOT NULL DEFAULT 0,
  permissions TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	adminUsers := `
CREATE TABLE IF NOT EXISTS admin_users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	userEmailIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_active
  ON users (email)
  WHERE deleted_at IS NULL;`
	adminEmailIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_admin_users_email_active
  ON admin_users (email)
  WHERE deleted_at IS NULL;`

	for _, stmt := range []string{usersTable, adminRoles, adminUsers, userEmailIndex, adminEmailIndex} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type stubSessionManager struct {
	generated []uuid.UUID
	revoked   []uuid.UUID
	rotateErr error
}

func (s *stubSessionManager) Generate(_ context.Context, _ enums.ActorRole, actorID uuid.UUID) (string, error) {
	s.generated = append(s.generated, actorID)
	return "refresh-" + actorID.String(), nil
}

func (s *stubSessionManager) Rotate(_ context.Context, _ enums.ActorRole, _ uuid.UUID, provided string) (string, error) {
	if s.rotateErr != nil {
		return "", s.rotateErr
	}
	return "rotated-" + provided, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, _ enums.ActorRole, actorID uuid.UUID) error {
	s.revoked = append(s.revoked, actorID)
	return nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type authFixture struct {
	conn     *gorm.DB
	service  Service
	sessions *stubSessionManager
	emitter  *stubEmitter
	jwtCfg   config.JWTConfig
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	conn := setupAuthTestDB(t)
	sessions := &stubSessionManager{}
	emitter := &stubEmitter{}
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 15,
	}
	// Low-cost argon parameters keep the hash calls fast in tests.
	passwordCfg := config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(conn),
		AdminRepo:      admins.NewRepository(conn),
		SessionManager: sessions,
		Outbox:         emitter,
		DBClient:       db.NewWithConn(conn),
		JWTConfig:      jwtCfg,
		PasswordConfig: passwordCfg,
	})
	require.NoError(t, err)

	return &authFixture{
		conn:     conn,
		service:  svc,
		sessions: sessions,
		emitter:  emitter,
		jwtCfg:   jwtCfg,
	}
}

func seedRole(t *testing.T, conn *gorm.DB, name string, grantsAll bool) *models.AdminRole {
	t.Helper()

	role := &models.AdminRole{ID: uuid.New(), Name: name, GrantsAll: grantsAll}
	require.NoError(t, conn.Create(role).Error)
	return role
}

func TestServiceSignup_createsUserAndIssuesTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.service.Signup(ctx, SignupRequest{
		Email:     "  Shopper@Example.COM ",
		Password:  "correct horse",
		FirstName: " Ada ",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "shopper@example.com", resp.User.Email)
	assert.Equal(t, "Ada", resp.User.FirstName)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "refresh-"+resp.User.ID.String(), resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(f.jwtCfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.ActorID)
	assert.Equal(t, enums.ActorRoleUser, claims.Role)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, enums.EventUserRegistered, f.emitter.events[0].EventType)
	assert.Equal(t, enums.AggregateUser, f.emitter.events[0].AggregateType)
}

func TestServiceSignup_duplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	req := SignupRequest{Email: "dup@example.com", Password: "password123", FirstName: "A", LastName: "B"}
	_, err := f.service.Signup(ctx, req)
	require.NoError(t, err)

	_, err = f.service.Signup(ctx, req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	_, err = f.service.Signup(ctx, SignupRequest{Email: "   ", Password: "password123"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Signup(ctx, SignupRequest{
		Email:     "login@example.com",
		Password:  "password123",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)

	resp, err := f.service.Login(ctx, LoginRequest{Email: "LOGIN@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = f.service.Login(ctx, LoginRequest{Email: "login@example.com", Password: "wrong"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())

	_, err = f.service.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "password123"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	// Deactivated accounts get the same opaque rejection.
	require.NoError(t, f.conn.Model(&models.User{}).
		Where("email = ?", "login@example.com").
		UpdateColumn("is_active", false).Error)
	_, err = f.service.Login(ctx, LoginRequest{Email: "login@example.com", Password: "password123"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())
}

func TestServiceAdminSignupAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	role := seedRole(t, f.conn, "superadmin", true)

	_, err := f.service.AdminSignup(ctx, AdminSignupRequest{
		Email:     "ops@example.com",
		Password:  "password123",
		FirstName: "Op",
		LastName:  "Erator",
		RoleName:  "missing-role",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	created, err := f.service.AdminSignup(ctx, AdminSignupRequest{
		Email:     "ops@example.com",
		Password:  "password123",
		FirstName: "Op",
		LastName:  "Erator",
		RoleName:  "Superadmin",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Admin)
	assert.Equal(t, role.ID, created.Admin.RoleID)
	assert.True(t, created.Admin.GrantsAll)

	resp, err := f.service.AdminLogin(ctx, LoginRequest{Email: "ops@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, resp.Admin)
	assert.Equal(t, "superadmin", resp.Admin.RoleName)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := pkgAuth.ParseAccessToken(f.jwtCfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.ActorRoleAdmin, claims.Role)

	_, err = f.service.AdminLogin(ctx, LoginRequest{Email: "ops@example.com", Password: "nope"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	actorID := uuid.New()

	accessToken, err := pkgAuth.MintAccessToken(f.jwtCfg, time.Now(), pkgAuth.AccessTokenPayload{
		ActorID: actorID,
		Role:    enums.ActorRoleUser,
	})
	require.NoError(t, err)

	resp, err := f.service.Refresh(ctx, RefreshRequest{AccessToken: accessToken, RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.Equal(t, "rotated-old-token", resp.RefreshToken)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := pkgAuth.ParseAccessToken(f.jwtCfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, actorID, claims.ActorID)

	_, err = f.service.Refresh(ctx, RefreshRequest{AccessToken: "garbage", RefreshToken: "old-token"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	f.sessions.rotateErr = session.ErrInvalidRefreshToken
	_, err = f.service.Refresh(ctx, RefreshRequest{AccessToken: accessToken, RefreshToken: "stale"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceLogout(t *testing.T) {
	f := newAuthFixture(t)
	actorID := uuid.New()

	require.NoError(t, f.service.Logout(context.Background(), enums.ActorRoleUser, actorID))
	require.Len(t, f.sessions.revoked, 1)
	assert.Equal(t, actorID, f.sessions.revoked[0])
}
