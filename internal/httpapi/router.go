// Package httpapi is the HTTP transport: routing, authentication
// middleware, request binding, and the mapping from service errors to
// status classes.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfward/shelfward/internal/catalog"
	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/identity"
	"github.com/shelfward/shelfward/internal/reservation"
)

// Logger interface for request and error logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// API bundles the services behind the HTTP surface.
type API struct {
	identity     *identity.Service
	catalog      *catalog.Service
	reservations *reservation.Service
	tokens       *identity.TokenCodec
	logger       Logger
	loginLimiter *limiterStore
	stopJanitor  chan struct{}
}

// Option defines a functional option for configuring API.
type Option func(*API)

// WithLogger sets the logger for the API.
func WithLogger(logger Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithLoginRateLimit overrides the default per-IP login rate limit.
func WithLoginRateLimit(rps float64, burst int) Option {
	return func(a *API) {
		a.loginLimiter = newLimiterStore(rps, burst)
	}
}

// New wires the API.
func New(
	identitySvc *identity.Service,
	catalogSvc *catalog.Service,
	reservationSvc *reservation.Service,
	tokens *identity.TokenCodec,
	options ...Option,
) *API {

	a := &API{
		identity:     identitySvc,
		catalog:      catalogSvc,
		reservations: reservationSvc,
		tokens:       tokens,
		loginLimiter: newLimiterStore(1, 5),
		stopJanitor:  make(chan struct{}),
	}

	for _, option := range options {
		option(a)
	}

	a.loginLimiter.startJanitor(2*time.Minute, a.stopJanitor)

	return a
}

// Close stops the API's background work.
func (a *API) Close() {
	close(a.stopJanitor)
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), a.RequestLogger())

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", a.handleRegister)
			auth.POST("/login", rateLimit(a.loginLimiter), a.handleLogin)
		}

		books := v1.Group("/books")
		{
			books.GET("", a.OptionalAuth(), a.handleListBooks)
			books.GET("/:id", a.OptionalAuth(), a.handleGetBook)
			books.POST("", a.AuthRequired(), RequirePermission(func(p domain.Permissions) bool { return p.CanCreateBooks }), a.handleCreateBook)
			books.PUT("/:id", a.AuthRequired(), RequirePermission(func(p domain.Permissions) bool { return p.CanUpdateBooks }), a.handleUpdateBook)
			books.DELETE("/:id", a.AuthRequired(), RequirePermission(func(p domain.Permissions) bool { return p.CanDeleteBooks }), a.handleDeleteBook)
		}

		users := v1.Group("/users")
		{
			users.GET("/me", a.AuthRequired(), a.handleGetMe)
			users.GET("/:id", a.handleGetUser)
			users.PUT("/:id", a.AuthRequired(), a.handleUpdateUser)
			users.DELETE("/:id", a.AuthRequired(), a.handleDeleteUser)
		}

		reservations := v1.Group("/reservations", a.AuthRequired())
		{
			reservations.POST("", a.handleCreateReservation)
			reservations.POST("/:id/return", a.handleReturnReservation)
			reservations.GET("/book/:bookId", a.handleReservationsByBook)
			reservations.GET("/user/:userId", a.handleReservationsByUser)
		}
	}

	return router
}
