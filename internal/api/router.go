package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/memberbase/accounts-api/internal/api/handler"
	"github.com/memberbase/accounts-api/internal/api/middleware"
	"github.com/memberbase/accounts-api/internal/core/ports"
	"github.com/memberbase/accounts-api/internal/core/service"
	"github.com/memberbase/accounts-api/internal/infrastructure/config"
	mongostore "github.com/memberbase/accounts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/memberbase/accounts-api/internal/infrastructure/db/redis"
)

// NewRouter builds the Echo instance with all routes registered. The account
// service is returned alongside so the caller can run the admin bootstrap.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, ports.AccountService) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	accountRepo := mongostore.NewAccountRepository(db)
	sessionStore := redisstore.NewSessionStore(rdb, cfg.SessionTTL)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	accountService := service.NewAccountService(accountRepo, log)
	authService := service.NewAuthService(accountService, accountRepo, tokenService, sessionStore, log)

	authHandler := handler.NewAuthHandler(authService, cfg.SessionTTL)
	accountHandler := handler.NewAccountHandler(accountService)

	// --- Guards ---
	auth := middleware.Auth(tokenService, sessionStore)
	adminOnly := middleware.AdminOnly()
	resolveTarget := middleware.ResolveTarget(accountRepo)
	selfOrAdmin := middleware.SelfOrAdmin()

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/validateAPIToken", authHandler.ValidateToken, auth)
	e.POST("/auth/logoutSession", authHandler.LogoutSession)

	// --- Account routes ---
	e.GET("/accounts/all", accountHandler.List, auth, adminOnly)
	e.POST("/accounts/new", accountHandler.Create, auth, adminOnly)
	e.GET("/accounts/:accountId/info/basic", accountHandler.BasicInfo, auth, resolveTarget)
	e.PUT("/accounts/:accountId/info", accountHandler.UpdateInfo, auth, resolveTarget, selfOrAdmin)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, accountService
}
