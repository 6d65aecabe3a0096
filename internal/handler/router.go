package handler

import (
	"net/http"
	"time"

	"atm-admin/internal/graph"
	sharedMiddleware "atm-admin/shared/middleware"
	"atm-admin/shared/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const screensPrefix = "/admin/api/screens"

// RouterDeps - зависимости HTTP-роутера.
type RouterDeps struct {
	Logger         *zap.Logger
	Verifier       sharedMiddleware.TokenVerifier
	GraphQL        *graph.Handler
	Screens        *ScreensHandler
	Health         gin.HandlerFunc
	RateLimit      gin.HandlerFunc // необязательный лимитер для /graphql
	AllowedOrigins []string
	Metrics        bool // регистрировать /metrics и метрики запросов
}

// NewRouter собирает gin.Engine со всеми маршрутами сервиса.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.GinZapLogger(deps.Logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(deps.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		deps.Logger.Info("CORS allowed origins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	if deps.Metrics {
		// Регистрирует middleware метрик запросов и маршрут /metrics.
		p := ginprometheus.NewPrometheus("gin")
		p.Use(router)
	}

	health := deps.Health
	if health == nil {
		health = HealthHandler(deps.Logger, nil)
	}
	router.GET("/health", health)
	router.HEAD("/health", health)

	adminAuth := sharedMiddleware.AuthMiddleware(deps.Verifier, deps.Logger.Named("Auth"), models.RoleAdmin)

	if deps.GraphQL != nil {
		graphqlChain := []gin.HandlerFunc{adminAuth}
		if deps.RateLimit != nil {
			graphqlChain = append(graphqlChain, deps.RateLimit)
		}
		graphqlChain = append(graphqlChain, deps.GraphQL.ServeHTTP)
		router.POST("/graphql", graphqlChain...)
	}

	if deps.Screens != nil {
		screensGroup := router.Group(screensPrefix, adminAuth)
		deps.Screens.RegisterRoutes(screensGroup)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	})

	return router
}
