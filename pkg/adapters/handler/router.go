package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/services"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ratelimit"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/validation"
)

// Services bundles the use cases the router exposes.
type Services struct {
	Auth        ports.AuthService
	Tags        ports.TagService
	Votes       ports.VoteService
	Collections ports.CollectionService
	Profiles    ports.ProfileService
	Community   ports.CommunityService
}

// NewServices wires every service to repo.
func NewServices(repo ports.Repository, log *slog.Logger) Services {
	return Services{
		Auth:        services.NewAuthService(repo, log),
		Tags:        services.NewTagService(repo, log),
		Votes:       services.NewVoteService(repo, log),
		Collections: services.NewCollectionService(repo, log),
		Profiles:    services.NewProfileService(repo, log),
		Community:   services.NewCommunityService(repo, repo, log),
	}
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates and configures the main application router. The returned
// limiter must be stopped by the caller on shutdown.
func NewRouter(cfg *config.Config, svc Services, db Pinger, log *slog.Logger) (http.Handler, *ratelimit.KeyedRateLimiter) {
	d := decoder{validate: validation.New(), log: log}

	// Initialize Middleware
	mw := NewMiddleware(cfg, log)

	// Initialize Handlers
	authHandler := NewAuthHandler(cfg, svc.Auth, mw, d)
	th := NewTagHandler(svc.Tags, svc.Votes, d)
	ch := NewCollectionHandler(svc.Collections, d)
	ph := NewProfileHandler(svc.Profiles, d)
	cm := NewCommunityHandler(svc.Community)

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limited := mw.RateLimit(limiter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public Routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.ErrorContext(ctx, "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Authenticate)

		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/signup", authHandler.SignUp)
			r.With(limited).Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/google/login", authHandler.Login)
			r.Get("/google/callback", authHandler.Callback)
		})

		// Anonymous reads
		r.Get("/verses/{verseKey}/community-tags", cm.VerseTags)
		r.Get("/community/tags", cm.Board)
		r.Get("/search/tags", cm.Search)
		r.Get("/collections/{id}", ch.GetCollection)
		r.Get("/tags/{id}/vote", th.GetVote)

		// Protected Routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)

			r.Get("/tags", th.ListMine)
			r.Get("/verses/{verseKey}/tags", th.ListMineForVerse)
			r.Get("/verses/{verseKey}/collections", ch.ListVerseCollections)
			r.Get("/collections", ch.ListCollections)
			r.Get("/profile", ph.Get)

			r.Group(func(r chi.Router) {
				r.Use(limited)

				r.Post("/tags", th.Create)
				r.Delete("/tags/{id}", th.Delete)
				r.Patch("/tags/{id}/visibility", th.SetVisibility)
				r.Post("/tags/{id}/vote", th.Vote)

				r.Post("/collections", ch.CreateCollection)
				r.Put("/collections/{id}", ch.UpdateCollection)
				r.Delete("/collections/{id}", ch.DeleteCollection)
				r.Patch("/collections/{id}/visibility", ch.SetVisibility)
				r.Post("/collections/{id}/verses", ch.AddVerse)
				r.Delete("/collections/{id}/verses/{verseKey}", ch.RemoveVerse)

				r.Patch("/profile", ph.Update)
			})
		})
	})

	return r, limiter
}
