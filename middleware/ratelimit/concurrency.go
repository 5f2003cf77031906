package ratelimit

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"wikidot-gateway/middleware/ratelimit/application"
	"wikidot-gateway/middleware/ratelimit/domain"
	"wikidot-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	// Pool vazio com Max > 0 cria um infra.ChanPool.
	Pool           domain.SlotPool
	Max            int
	AcquireTimeout time.Duration
	Logger         *zap.Logger
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				opts.Logger.Debug("concurrency slot unavailable", zap.Error(err), zap.String("path", r.URL.Path))
				WriteMessage(w, http.StatusServiceUnavailable, msgServiceUnavailable)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
