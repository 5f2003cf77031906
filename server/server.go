// Package server monta o roteador chi do gateway: middlewares globais, health
// e os endpoints /api, cada um atrás do seu próprio controle de admissão.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"wikidot-gateway/handlers"
	"wikidot-gateway/middleware/accesslog"
	"wikidot-gateway/middleware/ratelimit"
	"wikidot-gateway/middleware/ratelimit/domain"
	"wikidot-gateway/middleware/ratelimit/infra"
	"wikidot-gateway/middleware/requestid"
)

// StatsStore grava e lê os contadores de admissão.
type StatsStore interface {
	domain.StatsStore
	handlers.StatsReader
}

type Options struct {
	Addr string

	Limit          int
	Interval       time.Duration
	SecretToken    string
	AllowAnonymous bool
	OverflowPolicy domain.OverflowPolicy
	// Scheduler substitui time.AfterFunc nas expirações (testes).
	Scheduler domain.Scheduler

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration

	Scraper handlers.Scraper
	// Stats nulo usa infra.MemoryStatsStore.
	Stats  StatsStore
	Logger *zap.Logger
}

type Server struct {
	opts   Options
	router *chi.Mux
	http   *http.Server
	log    *zap.Logger

	mu          sync.Mutex
	controllers []*ratelimit.Controller
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Stats == nil {
		opts.Stats = infra.NewMemoryStatsStore()
	}

	s := &Server{
		opts:   opts,
		router: chi.NewRouter(),
		log:    opts.Logger,
	}
	s.routes()

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	var pool *infra.ChanPool
	if s.opts.ConcurrencyMax > 0 {
		pool = infra.NewChanPool(s.opts.ConcurrencyMax)
	}

	r := s.router
	r.Use(requestid.Middleware)
	r.Use(accesslog.Middleware(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	var (
		slots    domain.SlotPool
		inFlight handlers.InFlighter
	)
	if pool != nil {
		slots = pool
		inFlight = pool
	}
	// O limite de concorrência fica dentro da admissão: rejeições 400/401/429
	// e bypass não esperam vaga.
	gate := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Pool:           slots,
		AcquireTimeout: s.opts.ConcurrencyTimeout,
		Logger:         s.log,
	})
	api := handlers.NewAPI(s.opts.Scraper, s.log)

	r.Route("/api", func(r chi.Router) {
		r.With(s.admit(), gate).HandleFunc("/", api.Echo)
		r.With(s.admit(), gate).Get("/pages", api.Pages)
		r.With(s.admit(), gate).Get("/statistics", api.Statistics)
		r.With(s.admit(), gate).Get("/statistics/tags", api.TagNumber)
		r.With(s.admit(), gate).Get("/source", api.Source)
		r.With(s.admit(), gate).Get("/ratelimit/stats", handlers.AdmissionStats(s.opts.Stats, inFlight, s.log))
	})
}

// admit cria um controle de admissão novo: cada endpoint conta à parte.
func (s *Server) admit() func(http.Handler) http.Handler {
	c := ratelimit.New(ratelimit.Options{
		Limit:          s.opts.Limit,
		Interval:       s.opts.Interval,
		SecretToken:    s.opts.SecretToken,
		AllowAnonymous: s.opts.AllowAnonymous,
		OverflowPolicy: s.opts.OverflowPolicy,
		Scheduler:      s.opts.Scheduler,
		Stats:          s.opts.Stats,
		Logger:         s.log,
	})

	s.mu.Lock()
	s.controllers = append(s.controllers, c)
	s.mu.Unlock()
	return c.Wrap
}

func (s *Server) Handler() http.Handler { return s.router }

// Start bloqueia até o servidor parar. Shutdown faz Start retornar nil.
func (s *Server) Start() error {
	s.log.Info("gateway listening",
		zap.String("addr", s.opts.Addr),
		zap.Int("rate_limit", s.opts.Limit),
		zap.Duration("rate_interval", s.opts.Interval),
		zap.Stringer("overflow_policy", s.opts.OverflowPolicy),
		zap.Bool("secret_token", s.opts.SecretToken != ""),
		zap.Int("concurrency_max", s.opts.ConcurrencyMax))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown para de aceitar conexões e cancela as expirações pendentes.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	for _, c := range s.controllers {
		c.Close()
	}
	s.mu.Unlock()
	return err
}
