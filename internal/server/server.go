// Package server is the thin HTTP request layer: routing, session identity,
// JSON (de)serialization, and translation of core results to status codes.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartcard-app/smartcard/internal/deals"
	"github.com/smartcard-app/smartcard/internal/ratelimit"
	"github.com/smartcard-app/smartcard/internal/recommend"
	"github.com/smartcard-app/smartcard/internal/service"
)

// Server holds the handler dependencies. Everything is injected once at
// process start; handlers share no ambient globals.
type Server struct {
	users        service.UserStore
	sessions     service.SessionStore
	recommender  *recommend.Recommender
	deals        *deals.Service
	limiter      *ratelimit.Limiter
	logger       *slog.Logger
	secureCookie bool
}

// Config collects the server's dependencies.
type Config struct {
	Users        service.UserStore
	Sessions     service.SessionStore
	Recommender  *recommend.Recommender
	Deals        *deals.Service
	Limiter      *ratelimit.Limiter
	Logger       *slog.Logger
	SecureCookie bool
}

// New creates a Server.
func New(cfg Config) *Server {
	return &Server{
		users:        cfg.Users,
		sessions:     cfg.Sessions,
		recommender:  cfg.Recommender,
		deals:        cfg.Deals,
		limiter:      cfg.Limiter,
		logger:       cfg.Logger,
		secureCookie: cfg.SecureCookie,
	}
}

// Router builds the route tree. Authentication runs before rate limiting so
// admission is counted against the user identity rather than the address
// whenever a session is present.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(ratelimit.AuthLimit))
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit(ratelimit.DefaultLimit))

				r.Post("/auth/logout", s.handleLogout)
				r.Get("/user/info", s.handleUserInfo)

				r.Get("/cards", s.handleListCards)
				r.Post("/cards", s.handleAddCard)
				r.Put("/cards/{id}", s.handleUpdateCard)
				r.Delete("/cards/{id}", s.handleDeleteCard)

				r.Get("/gift-cards", s.handleListGiftCards)
				r.Post("/gift-cards", s.handleAddGiftCard)
				r.Put("/gift-cards/{id}", s.handleUpdateGiftCard)
				r.Delete("/gift-cards/{id}", s.handleDeleteGiftCard)

				r.Post("/location/enable", s.handleEnableLocation)
				r.Post("/location/check", s.handleCheckLocation)

				r.Get("/deals/cached", s.handleCachedDeals)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit(ratelimit.DealsLimit))
				r.Post("/deals/fetch", s.handleFetchDeals)
			})

			// Status reads its own fixed baseline; no admission check.
			r.Get("/rate-limit/status", s.handleRateLimitStatus)
		})
	})

	return r
}
