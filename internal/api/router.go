package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/attend/internal/api/handlers"
	"github.com/Togather-Foundation/attend/internal/api/middleware"
	"github.com/Togather-Foundation/attend/internal/config"
	"github.com/Togather-Foundation/attend/internal/domain/events"
	"github.com/Togather-Foundation/attend/internal/domain/users"
	"github.com/Togather-Foundation/attend/internal/metrics"
	"github.com/Togather-Foundation/attend/internal/storage/postgres"
)

// NewRouter wires repositories, services, and handlers into the HTTP surface.
// Listing and reading events is public; every mutation requires a bearer token.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version string) http.Handler {
	repo := postgres.NewRepository(pool)

	eventsService := events.NewService(repo.Events())
	usersService := users.NewService(repo.Users(), repo.Tokens(), cfg.Auth.TokenExpiry, logger)

	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)
	attendeesHandler := handlers.NewAttendeesHandler(eventsService, cfg.Environment)
	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	healthHandler := handlers.NewHealthHandler(pool, version)

	limit := middleware.RateLimit(cfg.RateLimit)
	requireUser := middleware.RequireUser(repo.Tokens())
	userTier := middleware.WithRateLimitTierHandler(middleware.TierUser)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)

	public := func(h http.HandlerFunc) http.Handler {
		return limit(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return userTier(limit(requireUser(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(healthHandler.Healthz))
	mux.Handle("/readyz", http.HandlerFunc(healthHandler.Readyz))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(limit(http.HandlerFunc(authHandler.Login))),
	}))
	mux.Handle("/api/v1/logout", methodMux(map[string]http.Handler{
		http.MethodPost: protected(authHandler.Logout),
	}))
	mux.Handle("/api/v1/user", methodMux(map[string]http.Handler{
		http.MethodGet: protected(authHandler.Me),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: protected(eventsHandler.Create),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodPut:    protected(eventsHandler.Update),
		http.MethodDelete: protected(eventsHandler.Delete),
	}))

	mux.Handle("/api/v1/events/{event}/attendees", methodMux(map[string]http.Handler{
		http.MethodGet:  public(attendeesHandler.List),
		http.MethodPost: protected(attendeesHandler.Create),
	}))
	mux.Handle("/api/v1/events/{event}/attendees/{attendee}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(attendeesHandler.Get),
		http.MethodDelete: protected(attendeesHandler.Delete),
	}))

	return metrics.HTTPMiddleware(middleware.RequestLogging(logger)(mux))
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
