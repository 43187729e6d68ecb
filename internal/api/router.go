package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homekeeper/household-api/internal/api/handler"
	"github.com/homekeeper/household-api/internal/api/middleware"
	"github.com/homekeeper/household-api/internal/core/domain"
	"github.com/homekeeper/household-api/internal/core/ports"
	"github.com/homekeeper/household-api/internal/infrastructure/http/handlers"
)

// routeRoles declares the required role set per protected route. The RBAC
// middleware consumes this table; handlers never re-check roles.
var routeRoles = map[string][]string{
	"GET /logout":            {domain.RoleUser, domain.RoleAdmin},
	"GET /users":             {domain.RoleAdmin},
	"GET /users/getUserInfo": {domain.RoleUser, domain.RoleAdmin},
	"PUT /users/:id":         {domain.RoleUser, domain.RoleAdmin},
	"DELETE /users/:id":      {domain.RoleAdmin},
	"DELETE /users/tokens":   {domain.RoleAdmin},
}

func requireRoles(route string) echo.MiddlewareFunc {
	return middleware.RBAC(routeRoles[route]...)
}

// Dependencies carries everything the router needs wired in.
type Dependencies struct {
	AuthService ports.AuthService
	UserService ports.UserService
	Tokens      ports.TokenRepository
	Revoked     ports.RevocationCache
	JWTSecret   string
	Mongo       *mongo.Database
	Redis       *redis.Client
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("homekeeper"))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserService, deps.AuthService)
	auth := middleware.Auth(deps.JWTSecret, deps.Tokens, deps.Revoked)

	// --- Session routes ---
	e.POST("/login", authHandler.Login)
	e.GET("/logout", authHandler.Logout, auth, requireRoles("GET /logout"))

	// --- User directory routes ---
	e.POST("/users/addUser", userHandler.AddUser)
	e.GET("/users", userHandler.List, auth, requireRoles("GET /users"))
	e.GET("/users/getUserInfo", userHandler.GetUserInfo, auth, requireRoles("GET /users/getUserInfo"))
	e.PUT("/users/:id", userHandler.Update, auth, requireRoles("PUT /users/:id"))
	e.DELETE("/users/:id", userHandler.Delete, auth, requireRoles("DELETE /users/:id"))
	e.DELETE("/users/tokens", userHandler.SweepTokens, auth, requireRoles("DELETE /users/tokens"))

	// --- Observability (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	return e
}
