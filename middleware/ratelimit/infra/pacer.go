package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer limita o ritmo das buscas de saída (scraping) com um token bucket
// (x/time/rate) por host, com cache por host e limpeza periódica.
//
// Não participa da admissão de clientes: só evita martelar o wiki.
type Pacer struct {
	mu           sync.Mutex
	entries      map[string]*pacerEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type pacerEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type PacerOption func(*Pacer)

func WithIdleTTL(d time.Duration) PacerOption {
	return func(p *Pacer) { p.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) PacerOption {
	return func(p *Pacer) { p.cleanupEvery = d }
}

// NewPacer cria um Pacer. rps <= 0 desliga o ritmo (rate.Inf).
func NewPacer(rps float64, burst int, opts ...PacerOption) *Pacer {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	p := &Pacer{
		entries:      make(map[string]*pacerEntry),
		rps:          limit,
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pacer) RPS() float64 { return float64(p.rps) }
func (p *Pacer) Burst() int   { return p.burst }

// Wait bloqueia até o host ter um token disponível ou o ctx encerrar.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	return p.Limiter(host).Wait(ctx)
}

func (p *Pacer) Limiter(host string) *rate.Limiter {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if ent, ok := p.entries[host]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(p.rps, p.burst)
	p.entries[host] = &pacerEntry{lim: lim, lastSeen: now}
	return lim
}

func (p *Pacer) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *Pacer) Cleanup() {
	cutoff := time.Now().Add(-p.idleTTL)

	p.mu.Lock()
	defer p.mu.Unlock()

	for k, ent := range p.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(p.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa hosts inativos periodicamente.
// Pare cancelando o contexto.
func (p *Pacer) StartJanitor(ctx context.Context) {
	if p.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(p.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				p.Cleanup()
			}
		}
	}()
}
