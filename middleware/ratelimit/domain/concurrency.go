package domain

import "context"

// SlotPool limita quantas requisições ficam em voo ao mesmo tempo (ex: scraping
// que segura conexões com o wiki).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar; o release
// retornado deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
