package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/mentorlink/mentorship-api/docs"
	"github.com/mentorlink/mentorship-api/internal/api/apierror"
	"github.com/mentorlink/mentorship-api/internal/api/handler"
	"github.com/mentorlink/mentorship-api/internal/api/middleware"
	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
	"github.com/mentorlink/mentorship-api/pkg/logger"
)

const metricsSubsystem = "http"

// RouterDeps are the collaborators the HTTP surface is built from.
type RouterDeps struct {
	Auth        ports.AuthService
	Gate        ports.SessionGate
	Mongo       *mongo.Database
	Redis       *redis.Client
	Log         zerolog.Logger
	AuthOptions handler.AuthOptions
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// Prometheus default registry, which also holds the auth metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = apierror.NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Log))
	promCfg := echoprometheus.MiddlewareConfig{Subsystem: metricsSubsystem}
	handlerCfg := echoprometheus.HandlerConfig{}
	if deps.Registry != nil {
		promCfg.Registerer = deps.Registry
		handlerCfg.Gatherer = deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.AuthOptions)
	accountHandler := handler.NewAccountHandler(deps.Auth)
	session := middleware.Session(deps.Gate)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, middleware.OptionalSession(deps.Gate))
	auth.GET("/check-session", authHandler.CheckSession, session)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.PATCH("/reset-password/:token", authHandler.ResetPassword)
	auth.PATCH("/update-password", authHandler.UpdatePassword, session)

	// --- Admin routes (session, then role) ---
	admin := v1.Group("/admin", session, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/accounts/:id", accountHandler.Get)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness) // liveness  – is the process alive?
	if deps.Mongo != nil && deps.Redis != nil {
		healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis, logger.Named(deps.Log, "health"))
		e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	}

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
