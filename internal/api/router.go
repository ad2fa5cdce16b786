package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api/handlers"
	"github.com/hugh/langhub/internal/api/middleware"
	"github.com/hugh/langhub/internal/auth"
	"github.com/hugh/langhub/internal/billing"
	"github.com/hugh/langhub/internal/license"
	"github.com/hugh/langhub/internal/membership"
	"github.com/hugh/langhub/internal/membership/lock"
	"github.com/hugh/langhub/internal/projects"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	TokenTTL       time.Duration
	Licenses       *license.Service
	Locker         lock.Locker
	AsynqClient    *asynq.Client
	ResolveTimeout time.Duration // bound on every collaborator call made by access checks
	AllowedOrigins []string      // CORS allowed origins
	RateLimitReqs  int           // Rate limit requests per window
	RateLimitEvery time.Duration // Rate limit window
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitReqs, cfg.RateLimitEvery)))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.CSRF())

	// Access control wiring: one store serves membership lookups, project
	// lookups and serialized mutations.
	store := membership.NewStore(cfg.DB, cfg.Locker)
	billingService := billing.NewService(cfg.DB)
	resolver := access.NewResolver(store, store, cfg.ResolveTimeout)
	entitlements := access.NewEntitlementResolver(billingService, cfg.Licenses, cfg.ResolveTimeout)
	guard := access.NewGuard(resolver, entitlements)
	protocol := access.NewProtocol(store, entitlements, cfg.ResolveTimeout, cfg.Logger)

	projectService := projects.NewService(cfg.DB, guard)
	memberService := membership.NewService(cfg.DB, store, guard, protocol)

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.TokenTTL, cfg.Logger)
	orgHandler := handlers.NewOrganizationHandler(projectService, billingService, cfg.Logger)
	projectHandler := handlers.NewProjectHandler(projectService, cfg.Logger)
	projectMembers := handlers.NewMemberHandler(memberService, handlers.ProjectScope, cfg.Logger)
	orgMembers := handlers.NewMemberHandler(memberService, handlers.OrganizationScope, cfg.Logger)
	licenseHandler := handlers.NewLicenseHandler(cfg.Licenses, cfg.AsynqClient, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)

			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Post("/", orgHandler.Create)
				r.Route("/{orgID}", func(r chi.Router) {
					r.Get("/", orgHandler.Get)
					r.Get("/subscription", orgHandler.Subscription)
					mountMembers(r, orgMembers)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Get("/features", projectHandler.Features)
					mountMembers(r, projectMembers)
				})
			})

			r.Route("/licenses", func(r chi.Router) {
				r.Use(middleware.RequireSuperadmin(cfg.AuthService))
				r.Get("/", licenseHandler.List)
				r.Post("/", licenseHandler.Import)
				r.Get("/current", licenseHandler.Current)
				r.Delete("/{licenseID}", licenseHandler.Delete)
			})
		})
	})

	return &Router{r}
}

func mountMembers(r chi.Router, h *handlers.MemberHandler) {
	r.Route("/members", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Invite)
		r.Put("/{userID}", h.ChangeRole)
		r.Delete("/{userID}", h.Remove)
	})
}
