package bootstrap

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/kotamart/storefront-backend/internal/api/http"
	"github.com/kotamart/storefront-backend/internal/api/http/middleware"
	"github.com/kotamart/storefront-backend/internal/cart"
	"github.com/kotamart/storefront-backend/internal/orders"
	"github.com/kotamart/storefront-backend/internal/products"
	"github.com/kotamart/storefront-backend/internal/seed"
	"github.com/kotamart/storefront-backend/internal/session"
	sessionhttp "github.com/kotamart/storefront-backend/internal/session/http"
	"github.com/kotamart/storefront-backend/internal/storeinfo"
	"github.com/kotamart/storefront-backend/internal/suggestions"
	"github.com/kotamart/storefront-backend/internal/users"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	CartTTL        time.Duration

	DB       *firestore.Client
	Redis    *redis.Client
	Images   products.ImageStore
	Uploads  products.Uploader
	Sessions *session.Manager
	Users    *users.Repo
	Suggest  *suggestions.Service
}

// BuildRouter assembles the HTTP surface: public health, session/auth
// endpoints, the shop API for signed-in customers and the owner-gated
// dashboard API.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())
	api.Use(sessionhttp.WithSession(dep.Sessions))

	sessionHandler := sessionhttp.NewHandler(dep.Sessions, dep.Users)
	sessionHandler.Register(api)

	productCache := products.NewListCache(dep.Redis)
	productRepo := products.NewRepo(dep.DB, productCache, dep.Images)
	orderRepo := orders.NewRepo(dep.DB)
	storeInfoRepo := storeinfo.NewRepo(dep.DB)
	cartStore := cart.NewStore(dep.Redis, dep.CartTTL)

	// Shop surface: any signed-in principal.
	shop := api.Group("")
	shop.Use(sessionhttp.RequireAuthenticated())

	// Dashboard surface: owners only.
	dashboard := api.Group("/dashboard")
	dashboard.Use(sessionhttp.RequireRole(users.RoleOwner))

	products.NewHandler(productRepo, dep.Uploads).Register(shop, dashboard)
	orders.NewHandler(orderRepo).Register(shop, dashboard)
	storeinfo.NewHandler(storeInfoRepo).Register(shop, dashboard)
	cart.NewHandler(cartStore, productRepo, orderRepo).Register(shop)
	seed.NewSeeder(productRepo).Register(dashboard)

	if dep.Suggest != nil {
		suggestions.NewHandler(dep.Suggest).Register(dashboard)
	}

	return r
}
