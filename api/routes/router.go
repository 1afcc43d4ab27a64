package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oselwa/storefront-backend/api/controllers"
	"github.com/oselwa/storefront-backend/api/middleware"
	"github.com/oselwa/storefront-backend/internal/admins"
	authsvc "github.com/oselwa/storefront-backend/internal/auth"
	cartsvc "github.com/oselwa/storefront-backend/internal/cart"
	"github.com/oselwa/storefront-backend/internal/catalog"
	"github.com/oselwa/storefront-backend/pkg/auth/session"
	"github.com/oselwa/storefront-backend/pkg/config"
	"github.com/oselwa/storefront-backend/pkg/db"
	"github.com/oselwa/storefront-backend/pkg/enums"
	"github.com/oselwa/storefront-backend/pkg/logger"
	"github.com/oselwa/storefront-backend/pkg/redis"
)

// RouterParams gathers everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              *db.Client
	Redis           *redis.Client
	Sessions        session.Checker
	AuthService     authsvc.Service
	Authorizer      admins.Authorizer
	CategoryService catalog.CategoryService
	ProductService  catalog.ProductService
	DiscountService catalog.DiscountService
	CartService     cartsvc.Service
	RoleService     admins.RoleService
}

// NewRouter assembles the chi router with the full route table.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, p.Redis, logg)).Post("/signup", controllers.AuthSignup(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/signup", controllers.AdminAuthSignup(p.AuthService, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AdminAuthLogin(p.AuthService, logg))
	})

	// Public catalog reads.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(p.ProductService, logg))
		r.Get("/products/discounted", controllers.ListDiscountedProducts(p.ProductService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(p.ProductService, logg))
		r.Get("/categories", controllers.ListCategories(p.CategoryService, logg))
		r.Get("/categories/{categoryId}", controllers.GetCategory(p.CategoryService, logg))
		r.Get("/categories/{categoryId}/products", controllers.ListProductsByCategory(p.ProductService, logg))
	})

	// Authenticated shopper cart.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireRole(enums.ActorRoleUser, logg))

		r.Get("/", controllers.GetCart(p.CartService, logg))
		r.Delete("/", controllers.ClearCart(p.CartService, logg))
		r.Post("/session", controllers.CreateCartSession(p.CartService, logg))
		r.Post("/items", controllers.AddCartItem(p.CartService, logg))
		r.Patch("/items", controllers.UpdateCartItem(p.CartService, logg))
		r.Delete("/items", controllers.RemoveCartItem(p.CartService, logg))
	})

	// Admin catalog management, gated per permission tag.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(p.Authorizer, enums.PermissionManageProducts, logg))
			r.Post("/products", controllers.AdminCreateProduct(p.ProductService, logg))
			r.Patch("/products/{productId}", controllers.AdminUpdateProduct(p.ProductService, logg))
			r.Patch("/products/{productId}/inventory", controllers.AdminUpdateInventory(p.ProductService, logg))
			r.Delete("/products/{productId}", controllers.AdminDeleteProduct(p.ProductService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(p.Authorizer, enums.PermissionManageCategories, logg))
			r.Post("/categories", controllers.AdminCreateCategory(p.CategoryService, logg))
			r.Patch("/categories/{categoryId}", controllers.AdminUpdateCategory(p.CategoryService, logg))
			r.Delete("/categories/{categoryId}", controllers.AdminDeleteCategory(p.CategoryService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(p.Authorizer, enums.PermissionManageDiscounts, logg))
			r.Post("/discounts", controllers.AdminCreateDiscount(p.DiscountService, logg))
			r.Get("/discounts", controllers.AdminListDiscounts(p.DiscountService, logg))
			r.Get("/discounts/{discountId}", controllers.AdminGetDiscount(p.DiscountService, logg))
			r.Delete("/discounts/{discountId}", controllers.AdminDeleteDiscount(p.DiscountService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(p.Authorizer, enums.PermissionManageAdmins, logg))
			r.Post("/roles", controllers.AdminCreateRole(p.RoleService, logg))
			r.Get("/roles", controllers.AdminListRoles(p.RoleService, logg))
			r.Get("/roles/{roleId}", controllers.AdminGetRole(p.RoleService, logg))
		})
	})

	return r
}
