// Package routes wires the domain handlers into the HTTP surface.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/domain/auth"
	"github.com/littletrip/littletrip-api/internal/app/domain/places"
	"github.com/littletrip/littletrip-api/internal/app/domain/preferences"
	"github.com/littletrip/littletrip-api/internal/app/domain/tips"
	"github.com/littletrip/littletrip-api/internal/app/domain/users"
	"github.com/littletrip/littletrip-api/internal/app/middleware"
	"github.com/littletrip/littletrip-api/internal/pkg/config"
)

// AppHandlers aggregates every domain's HTTP handlers.
type AppHandlers struct {
	Auth        *auth.AuthHandlers
	Places      *places.Handlers
	Tips        *tips.Handlers
	Preferences *preferences.Handlers
	Users       *users.Handlers
}

func setupDependencies(pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *AppHandlers {
	catalogCache := cache.New(5*time.Minute, 10*time.Minute)
	deviceCache := cache.New(30*24*time.Hour, time.Hour)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg, logger)

	prefService := preferences.NewCoordinator(
		preferences.NewPostgresStore(pool, logger),
		preferences.NewLocalStore(deviceCache),
		logger,
	)

	placeRepo := places.NewRepository(pool, logger)
	placeService := places.NewService(placeRepo, catalogCache, logger)

	tipService := tips.NewService(tips.NewRepository(pool, logger), logger)
	userService := users.NewService(users.NewRepository(pool, logger), logger)

	return &AppHandlers{
		Auth:        auth.NewAuthHandlers(authService, logger),
		Places:      places.NewHandlers(placeService, prefService, logger),
		Tips:        tips.NewHandlers(tipService, logger),
		Preferences: preferences.NewHandlers(prefService, logger),
		Users:       users.NewHandlers(userService, logger),
	}
}

// Setup registers the full route tree on the router.
func Setup(r *gin.Engine, pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) {
	h := setupDependencies(pool, cfg, logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	optionalAuth := middleware.JWTAuthMiddleware(auth.JWTConfig{
		SecretKey: cfg.JWT.SecretKey,
		Logger:    logger,
		Optional:  true,
	})
	requiredAuth := middleware.JWTAuthMiddleware(auth.JWTConfig{
		SecretKey: cfg.JWT.SecretKey,
		Logger:    logger,
	})

	api := r.Group("/api/v1")
	api.Use(optionalAuth)
	{
		api.GET("/places", h.Places.ListPlaces)
		api.GET("/places/:id", h.Places.GetPlace)
		api.GET("/tips", h.Tips.ListTips)

		api.GET("/preferences", h.Preferences.GetPreferences)
		api.POST("/preferences/toggle", h.Preferences.Toggle)
		api.GET("/preferences/stats", h.Preferences.Stats)
	}

	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/setup", h.Auth.Setup)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/me", requiredAuth, h.Auth.Me)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(requiredAuth, middleware.AdminRequired())
	{
		admin.GET("/places/search", h.Places.SearchPlaces)
		admin.POST("/places", h.Places.CreatePlace)
		admin.PUT("/places/:id", h.Places.UpdatePlace)
		admin.DELETE("/places/:id", h.Places.DeletePlace)
		admin.POST("/places/import", h.Places.ImportPlaces)

		admin.POST("/tips", h.Tips.CreateTip)
		admin.DELETE("/tips/:id", h.Tips.DeleteTip)

		admin.GET("/users", h.Users.ListUsers)
		admin.GET("/users/:id", h.Users.GetUser)
		admin.PUT("/users/:id/admin", h.Users.SetAdmin)
		admin.DELETE("/users/:id", h.Users.Deactivate)
	}
}
