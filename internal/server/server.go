// Package server exposes the HTTP API: passwordless auth, questionnaire
// submission, previews and vetoes, final-match decisions, and the operator
// surface for running rounds and managing the schedule.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hilo-match/hilo/internal/app"
	"github.com/hilo-match/hilo/internal/auth"
	"github.com/hilo-match/hilo/internal/cache"
	"github.com/hilo-match/hilo/internal/config"
	"github.com/hilo-match/hilo/internal/matching"
	"github.com/hilo-match/hilo/internal/repository"
	"github.com/hilo-match/hilo/internal/tags"
)

type Server struct {
	cfg       *config.Config
	log       *slog.Logger
	catalog   *tags.Catalog
	traitList []tags.Trait
	traits    tags.TraitSet
	cache     *cache.RedisCache

	users     *repository.UserRepository
	forms     *repository.FormRepository
	vetoes    *repository.VetoRepository
	previews  *repository.PreviewRepository
	matches   *repository.MatchRepository
	schedules *repository.ScheduleRepository

	codes *auth.CodeService
	jwt   *auth.JWT

	previewGen *matching.PreviewGenerator
	assigner   *matching.FinalAssigner
	lifecycle  *matching.Lifecycle

	httpServer *http.Server
}

// New wires repositories and services off the shared app context.
func New(appCtx *app.AppContext) *Server {
	cfg := appCtx.Config
	users := repository.NewUserRepository(appCtx.DB)
	weights := matching.WeightsFromConfig(cfg)

	s := &Server{
		cfg:       cfg,
		log:       appCtx.Log,
		catalog:   appCtx.Catalog,
		traitList: appCtx.TraitList,
		traits:    appCtx.Traits,
		cache:     appCtx.Cache,

		users:     users,
		forms:     repository.NewFormRepository(appCtx.DB),
		vetoes:    repository.NewVetoRepository(appCtx.DB),
		previews:  repository.NewPreviewRepository(appCtx.DB),
		matches:   repository.NewMatchRepository(appCtx.DB),
		schedules: repository.NewScheduleRepository(appCtx.DB),

		codes: auth.NewCodeService(
			appCtx.Cache, users, &auth.LogSender{Log: appCtx.Log},
			cfg.Auth.AllowedDomains, cfg.Auth.CodeExpiry, cfg.Auth.CodeRateLimit,
			appCtx.Log,
		),
		jwt: auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry),

		previewGen: matching.NewPreviewGenerator(
			appCtx.DB, appCtx.Catalog, weights, cfg.Matching.PreviewK, appCtx.Log),
		assigner: matching.NewFinalAssigner(appCtx.DB, appCtx.Catalog, weights, appCtx.Log),
		lifecycle: matching.NewLifecycle(
			appCtx.DB, cfg.Matching.AcceptTimeout, appCtx.Log),
	}

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi handler tree. Exposed separately so tests can drive
// the API with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/send-code", s.sendCode)
		r.Post("/auth/verify-code", s.verifyCode)
		r.Post("/auth/refresh", s.refresh)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.jwt))

			r.Get("/me", s.getMe)
			r.Patch("/me", s.updateProfile)
			r.Post("/verification", s.requestVerification)

			r.Get("/catalog/tags", s.getTagCatalog)
			r.Get("/catalog/traits", s.getTraitCatalog)

			r.Put("/form", s.submitForm)
			r.Get("/form", s.getForm)

			r.Get("/previews", s.getPreviews)

			r.Post("/vetoes", s.addVeto)
			r.Get("/vetoes", s.listVetoes)
			r.Delete("/vetoes/{candidateID}", s.removeVeto)

			r.Post("/match/accept", s.acceptMatch)
			r.Post("/match/reject", s.rejectMatch)
			r.Get("/match/partner", s.getPartner)
			r.Get("/match/next-time", s.nextMatchTime)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminMiddleware(s.cfg.Auth.AdminTokenHash))

			r.Post("/previews/run", s.adminRunPreviews)
			r.Post("/matches/run", s.adminRunMatch)
			r.Get("/matches/dry-run", s.adminDryRunMatch)
			r.Get("/matches", s.adminListMatches)
			r.Delete("/matches/{matchID}", s.adminDeleteMatch)

			r.Post("/schedules", s.adminCreateSlots)
			r.Get("/schedules", s.adminListSlots)
			r.Delete("/schedules/{slotID}", s.adminDeleteSlot)

			r.Post("/users/verify", s.adminVerifyUser)
		})
	})

	return r
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
