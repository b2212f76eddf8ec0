package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/middleware"
	"github.com/littletrip/littletrip-api/internal/pkg/config"
	"github.com/littletrip/littletrip-api/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.OTELGinMiddleware("littletrip-api"))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	routes.Setup(r, dbPool, cfg, logger)

	return r
}
