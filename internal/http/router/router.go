package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/movie-catalog-backend/internal/health"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/handler"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/middleware"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
)

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	FavoritesHandler  *handler.FavoritesHandler
	AdminHandler      *handler.AdminHandler
	TokenVerifier     security.TokenVerifier
	IdentityLoader    middleware.IdentityLoader
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	Readiness         *health.ProbeRunner
	AvatarUploads     bool
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

const avatarBodyLimit = 6 << 20

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	protect := middleware.Protect(dep.TokenVerifier, dep.IdentityLoader)
	jsonBody := middleware.BodyLimit(1 << 20)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		response.Text(w, http.StatusOK, "API is running...")
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.With(authLimiter, jsonBody).Post("/", dep.AuthHandler.Register)
		r.With(authLimiter, jsonBody).Post("/login", dep.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.With(jsonBody).Put("/", dep.UserHandler.UpdateProfile)
			r.Delete("/", dep.UserHandler.DeleteSelf)
			r.With(authLimiter, jsonBody).Put("/password", dep.UserHandler.ChangePassword)
			if dep.AvatarUploads {
				r.With(middleware.BodyLimit(avatarBodyLimit)).Put("/avatar", dep.UserHandler.UpdateAvatar)
			}

			r.Get("/favorites", dep.FavoritesHandler.List)
			r.With(jsonBody).Post("/favorites", dep.FavoritesHandler.Add)
			r.Delete("/favorites", dep.FavoritesHandler.Clear)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/", dep.AdminHandler.ListUsers)
				r.Delete("/{id}", dep.AdminHandler.DeleteUser)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
