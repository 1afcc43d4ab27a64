package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/oselwa/storefront-backend/api/routes"
	"github.com/oselwa/storefront-backend/internal/admins"
	authsvc "github.com/oselwa/storefront-backend/internal/auth"
	cartsvc "github.com/oselwa/storefront-backend/internal/cart"
	"github.com/oselwa/storefront-backend/internal/catalog"
	"github.com/oselwa/storefront-backend/internal/users"
	"github.com/oselwa/storefront-backend/pkg/auth/session"
	"github.com/oselwa/storefront-backend/pkg/config"
	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/logger"
	"github.com/oselwa/storefront-backend/pkg/migrate"
	"github.com/oselwa/storefront-backend/pkg/outbox"
	"github.com/oselwa/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	adminRepo := admins.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		AdminRepo:      adminRepo,
		SessionManager: sessionManager,
		Outbox:         outboxService,
		DBClient:       dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	authorizer, err := admins.NewAuthorizer(adminRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create authorizer", err)
		os.Exit(1)
	}

	categoryService, err := catalog.NewCategoryService(catalogRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}
	productService, err := catalog.NewProductService(catalogRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	discountService, err := catalog.NewDiscountService(catalogRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartRepo, catalogRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	roleService, err := admins.NewRoleService(adminRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create role service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Sessions:        sessionManager,
			AuthService:     authService,
			Authorizer:      authorizer,
			CategoryService: categoryService,
			ProductService:  productService,
			DiscountService: discountService,
			CartService:     cartService,
			RoleService:     roleService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
