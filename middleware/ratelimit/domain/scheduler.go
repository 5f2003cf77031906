package domain

import "time"

// Eviction é o handle de uma ação adiada de uso único.
//
// Cancel deve ser idempotente: cancelar algo já disparado ou já cancelado
// não é erro.
type Eviction interface {
	Cancel()
}

// Scheduler agenda ações adiadas. Em produção é time.AfterFunc; nos testes
// um agendador manual permite disparar expirações de forma determinística.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Eviction
}
