package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/observability"
	"github.com/msomdec/result-processing/internal/service"
)

// Defaults applied by NewRouter when the matching Options field is zero.
const (
	DefaultTokenRateLimit = 30
	DefaultRequestTimeout = 30 * time.Second
)

// Options carries the services and switches the router is built from.
type Options struct {
	Tokens    *service.TokenService
	Authority *service.RoleAuthority
	Directory *service.UserDirectory
	Ledger    *service.ResultLedger
	Metrics   *observability.Metrics

	// GuardMutations requires admin for user deletes and role changes and
	// manager or admin for result updates.
	GuardMutations bool

	TokenRateLimit     int // token issuances per client IP per minute
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	Production         bool
}

// NewRouter builds the HTTP handler for the whole service.
func NewRouter(opts Options) http.Handler {
	if opts.TokenRateLimit <= 0 {
		opts.TokenRateLimit = DefaultTokenRateLimit
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"*"}
	}

	tokenHandler := NewTokenHandler(opts.Tokens, opts.Metrics)
	userHandler := NewUserHandler(opts.Directory, opts.Authority)
	resultHandler := NewResultHandler(opts.Ledger)

	auth := func(next http.Handler) http.Handler {
		return RequireAuth(opts.Tokens, opts.Metrics, next)
	}
	// mutation wraps the routes that are open by default and locked down
	// when GuardMutations is set.
	mutation := func(roles ...domain.Role) func(http.Handler) http.Handler {
		if !opts.GuardMutations {
			return func(next http.Handler) http.Handler { return next }
		}
		gate := RequireRole(opts.Authority, opts.Metrics, roles...)
		return func(next http.Handler) http.Handler { return auth(gate(next)) }
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(opts.Metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(SecurityHeaders(opts.Production))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", HandleHome)
	r.Get("/healthz", HandleHealthz)
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.With(httprate.Limit(opts.TokenRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
		}),
	)).Post("/jwt", tokenHandler.HandleIssue)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Post("/", userHandler.HandleCreate)
		r.With(auth).Get("/admin/{email}", userHandler.HandleIsAdmin)
		r.With(auth).Get("/manager/{email}", userHandler.HandleIsManager)

		admin := mutation(domain.RoleAdmin)
		r.With(admin).Delete("/{id}", userHandler.HandleDelete)
		r.With(admin).Patch("/admin/{id}", userHandler.HandleSetRole(domain.RoleAdmin))
		r.With(admin).Patch("/user/{id}", userHandler.HandleSetRole(domain.RoleUser))
		r.With(admin).Patch("/manager/{id}", userHandler.HandleSetRole(domain.RoleManager))
	})

	r.Route("/results", func(r chi.Router) {
		r.Get("/", resultHandler.HandleList)
		r.Get("/{id}", resultHandler.HandleGet)
		r.With(auth).Post("/", resultHandler.HandleCreate)
		r.With(mutation(domain.RoleManager, domain.RoleAdmin)).Patch("/{id}", resultHandler.HandleUpdate)
	})

	return r
}
