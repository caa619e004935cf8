package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-restaurant-ordering/controllers"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/metrics"
	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/services"
)

type Options struct {
	SecretKey   string
	CORSOrigins []string
	Logger      *slog.Logger
}

func NewRouter(opts Options, h *controllers.Controller) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logging.New("http")
	}
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware(), middleware.Logging(opts.Logger))

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"POST", "GET", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "token", controllers.IdempotencyKeyHeader, middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found", "code": services.CodeNotFound})
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/")
	authed := router.Group("/", middleware.Authentication(opts.SecretKey))
	admin := router.Group("/admin", middleware.Authentication(opts.SecretKey), middleware.RequireRole(services.RoleAdmin))

	MenuRoutes(public, admin, h)
	CategoryRoutes(public, admin, h)
	TableRoutes(public, admin, h)
	OrderRoutes(authed, admin, h)
	LogRoutes(admin, h)

	return router
}
