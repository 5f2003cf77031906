package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wikidot-gateway/middleware/ratelimit/application"
	"wikidot-gateway/middleware/ratelimit/domain"
	"wikidot-gateway/middleware/ratelimit/infra"
)

const (
	DefaultLimit      = 10
	DefaultInterval   = 60 * time.Second
	DefaultTokenParam = "token"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	// Limit é o máximo de requisições por janela (padrão 10).
	Limit int
	// Interval é o tamanho da janela (padrão 60s).
	Interval time.Duration

	SecretToken    string
	AllowAnonymous bool
	TokenParam     string

	OverflowPolicy domain.OverflowPolicy
	Scheduler      domain.Scheduler

	Stats  domain.StatsStore
	KeyFn  KeyFunc
	Logger *zap.Logger
}

// DefaultKeyFunc usa o primeiro valor do X-Forwarded-For (cliente original) e,
// se vazio, o host do RemoteAddr. Retorna "" quando nada identifica o cliente.
func DefaultKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		// ":5555" não identifica ninguém
		return host
	}
	return addr
}

// Controller é uma instância do controle de admissão: um registro de janelas,
// uma política e o handler protegido por Wrap.
type Controller struct {
	svc        application.Service
	window     *infra.WindowStore
	stats      domain.StatsStore
	keyFn      KeyFunc
	tokenParam string
	log        *zap.Logger
}

func New(opts Options) *Controller {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TokenParam == "" {
		opts.TokenParam = DefaultTokenParam
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	windowOpts := []infra.WindowOption{infra.WithOverflowPolicy(opts.OverflowPolicy)}
	if opts.Scheduler != nil {
		windowOpts = append(windowOpts, infra.WithScheduler(opts.Scheduler))
	}
	window := infra.NewWindowStore(opts.Interval, windowOpts...)

	// Com OverflowCancel o registro estourado não expira: não há quando voltar.
	var retryAfter time.Duration
	if opts.OverflowPolicy == domain.OverflowRearm {
		retryAfter = opts.Interval
	}

	return &Controller{
		svc: application.Service{
			Store:          window,
			Limit:          opts.Limit,
			SecretToken:    opts.SecretToken,
			AllowAnonymous: opts.AllowAnonymous,
			RetryAfter:     retryAfter,
		},
		window:     window,
		stats:      opts.Stats,
		keyFn:      opts.KeyFn,
		tokenParam: opts.TokenParam,
		log:        opts.Logger,
	}
}

// Window expõe o registro (para inspeção e shutdown).
func (c *Controller) Window() *infra.WindowStore { return c.window }

// Close cancela as expirações pendentes do registro.
func (c *Controller) Close() { c.window.Close() }

func (c *Controller) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := c.keyFn(r)
		token := r.URL.Query().Get(c.tokenParam)

		dec := c.svc.Decide(domain.Request{Key: domain.Key(key), Token: token})
		if c.stats != nil {
			if err := c.stats.Record(r.Context(), domain.StatsEvent{
				Key:     domain.Key(key),
				Outcome: dec.Outcome,
				Method:  r.Method,
				Path:    r.URL.Path,
				At:      time.Now(),
			}); err != nil {
				c.log.Warn("admission stats not recorded", zap.Error(err))
			}
		}

		if !dec.Allowed() {
			c.log.Debug("request rejected",
				zap.String("key", key),
				zap.Stringer("outcome", dec.Outcome),
				zap.Int("count", dec.Count),
				zap.String("path", r.URL.Path))

			if dec.Outcome == domain.OutcomeTooManyRequests && dec.RetryAfter > 0 {
				w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
			}
			status, msg := rejection(dec.Outcome)
			WriteMessage(w, status, msg)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Middleware cria um Controller novo e devolve seu Wrap.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	return New(opts).Wrap
}
