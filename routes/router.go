package routes

import (
	"time"

	handlers "campusrides/internal/handlers/shared"
	"campusrides/internal/middleware"
	"campusrides/pkg/auth"
	"campusrides/pkg/logger"
	"campusrides/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler         *handlers.RideHandler
	BookingHandler      *handlers.BookingHandler
	CarHandler          *handlers.CarHandler
	ChatHandler         *handlers.ChatHandler
	NotificationHandler *handlers.NotificationHandler
	ProfileHandler      *handlers.ProfileHandler
	MediaHandler        *handlers.MediaHandler
	EmailHandler        *handlers.EmailHandler
	HealthHandler       *handlers.HealthHandler
	WebSocketHandler    *websocket.Handler

	Verifier auth.Verifier
	Logger   *logger.Logger

	// IdempotencyStore is nil when redis is disabled; booking retries are
	// then not deduplicated.
	IdempotencyStore middleware.IdempotencyStore
	IdempotencyTTL   time.Duration

	RequireVerifiedEmail bool
	CORSAllowedOrigins   []string
	TrustedProxies       []string
	MetricsPath          string
	WebSocketPath        string
	NewRelicApp          *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	router := gin.New()
	_ = router.SetTrustedProxies(deps.TrustedProxies)

	// Global middleware.
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(deps.CORSAllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", deps.HealthHandler.Health)
	if deps.MetricsPath != "" {
		router.GET(deps.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	// Local storage serves its own signed URLs.
	SetupFileRoutes(router.Group("/uploads"), deps.MediaHandler)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthRequired(deps.Verifier, deps.Logger))

	// Profile routes stay reachable before the email is verified so the
	// client can finish onboarding.
	SetupProfileRoutes(v1, deps.ProfileHandler)

	app := v1.Group("")
	if deps.RequireVerifiedEmail {
		app.Use(middleware.RequireVerifiedEmail())
	}
	{
		idempotent := middleware.IdempotencyMiddleware(deps.IdempotencyStore, deps.IdempotencyTTL, deps.Logger)

		SetupRideRoutes(app, deps.RideHandler, idempotent)
		SetupBookingRoutes(app, deps.BookingHandler, idempotent)
		SetupCarRoutes(app, deps.CarHandler)
		SetupUserRoutes(app, deps.ProfileHandler)
		SetupChatRoutes(app, deps.ChatHandler)
		SetupNotificationRoutes(app, deps.NotificationHandler)
		SetupMediaRoutes(app, deps.MediaHandler, deps.EmailHandler)

		wsPath := deps.WebSocketPath
		if wsPath == "" {
			wsPath = "/ws"
		}
		app.GET(wsPath, deps.WebSocketHandler.HandleWebSocket)
	}

	return router
}
