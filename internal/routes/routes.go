package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/handlers"
	middlewareCustom "github.com/BradenHooton/supportportal/internal/middleware"
	"github.com/BradenHooton/supportportal/internal/models"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dependencies is everything the router needs
type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	HealthHandler  *handlers.HealthHandler
	Tokens         auth.TokenValidator
	IPConfig       *pkghttp.IPConfig
	Logger         *slog.Logger
	Env            string
	AllowedOrigins []string
	LoginRateLimit int
	RequestTimeout time.Duration
}

// NewRouter builds the chi router with the global middleware chain
func NewRouter(deps Dependencies) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.Recoverer(deps.Logger))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: deps.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(deps.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(deps.Logger, deps.IPConfig))
	if deps.RequestTimeout > 0 {
		router.Use(middleware.Timeout(deps.RequestTimeout))
	}

	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	loginLimit := middlewareCustom.RateLimitByIP(middlewareCustom.RateLimitConfig{
		RequestsPerMinute: deps.LoginRateLimit,
		IPConfig:          deps.IPConfig,
	})

	router.Get("/health", deps.HealthHandler.Health)

	router.Route("/user", func(r chi.Router) {
		// Public routes
		r.With(loginLimit).Post("/login", deps.AuthHandler.Login)
		r.With(loginLimit).Post("/register", deps.AuthHandler.Register)
		r.With(loginLimit).Get("/resetpassword/{email}", deps.UserHandler.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(deps.Tokens))

			r.With(auth.RequireAuthority(models.AuthorityUserRead)).Get("/list", deps.UserHandler.ListUsers)
			r.With(auth.RequireAuthority(models.AuthorityUserRead)).Get("/find/{username}", deps.UserHandler.FindUser)
			r.With(auth.RequireAuthority(models.AuthorityUserCreate)).Post("/add", deps.UserHandler.AddUser)
			r.With(auth.RequireAuthority(models.AuthorityUserUpdate)).Post("/update", deps.UserHandler.UpdateUser)
			r.With(auth.RequireAuthority(models.AuthorityUserDelete)).Delete("/delete/{username}", deps.UserHandler.DeleteUser)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "there is no mapping for this URL")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "this request method is not allowed on this endpoint")
	})
}
