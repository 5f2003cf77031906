package application

import (
	"context"
	"fmt"
	"time"

	"wikidot-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService aplica o limite de requisições simultâneas com timeout de
// aquisição, sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - AcquireTimeout <= 0: espera até o ctx da requisição encerrar.
//   - AcquireTimeout > 0: espera no máximo esse tempo.
//
// Em caso de falha retorna um erro que embrulha domain.ErrNoSlot e nenhum release.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if !ok {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoSlot, acqCtx.Err())
	}
	return release, nil
}
