package api

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/nimbuslabs/account-portal/docs"
	"github.com/nimbuslabs/account-portal/internal/api/handler"
	"github.com/nimbuslabs/account-portal/internal/api/middleware"
	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/service"
	"github.com/nimbuslabs/account-portal/internal/core/session"
	mongodb "github.com/nimbuslabs/account-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/nimbuslabs/account-portal/internal/infrastructure/db/redis"
	"github.com/nimbuslabs/account-portal/internal/infrastructure/storage"
)

// Options carries everything the router needs to assemble the application.
type Options struct {
	Mongo      *mongo.Database
	Redis      *redis.Client
	JWTSecret  string
	BaseURL    string
	SessionTTL time.Duration
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	users := mongodb.NewUserRepository(opts.Mongo)
	if err := users.EnsureIndexes(context.Background()); err != nil {
		return nil, err
	}
	profiles := mongodb.NewProfileRepository(opts.Mongo)
	sessions := redisdb.NewSessionStore(opts.Redis)
	avatars, err := storage.NewGridFSAvatarStore(opts.Mongo, opts.BaseURL)
	if err != nil {
		return nil, err
	}

	bus := session.NewBus()
	authService := service.NewAuthService(users, sessions, bus, opts.JWTSecret, opts.BaseURL, opts.SessionTTL, opts.Logger)
	profileService := service.NewProfileService(profiles, avatars, opts.Logger)

	policy := domain.DefaultNavigationPolicy()
	guard := middleware.Guard(authService, policy, opts.Logger)
	authLimit := middleware.RateLimitByIP(middleware.AuthLimit)

	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	avatarHandler := handler.NewAvatarHandler(avatars)
	pageHandler := handler.NewPageHandler()
	eventsHandler := handler.NewSessionEventsHandler(authService, policy, opts.Logger)

	// --- Pages (guarded navigation) ---
	e.GET("/", pageHandler.Landing, guard)
	e.GET("/login", pageHandler.Login, guard)
	e.GET("/register", pageHandler.Register, guard)
	e.GET("/dashboard", pageHandler.Dashboard, guard)
	e.GET("/dashboard/*", pageHandler.Dashboard, guard)

	// --- Auth ---
	e.POST("/auth/register", authHandler.Register, authLimit)
	e.POST("/auth/login", authHandler.Login, authLimit)
	e.POST("/auth/logout", authHandler.Logout, guard)
	e.GET("/auth/callback", authHandler.Callback)
	e.GET("/auth/session", authHandler.Session, guard)
	e.GET("/auth/events", eventsHandler.Stream, guard, middleware.RequireSession())

	// --- Profile API ---
	apiGroup := e.Group("/api", guard, middleware.RequireSession())
	apiGroup.GET("/profile", profileHandler.Get)
	apiGroup.PUT("/profile", profileHandler.Save)
	apiGroup.POST("/profile/avatar", profileHandler.UploadAvatar)

	// --- Public avatar objects ---
	e.GET("/avatars/:key", avatarHandler.Get)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(opts.Mongo, opts.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability / docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/docs/*", echoswagger.WrapHandler)

	return e, nil
}
