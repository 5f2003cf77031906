package domain

// Camada de domínio do controle de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica um cliente no registro (normalmente o IP de origem).
type Key string

// Outcome é o resultado terminal de uma requisição no controle de admissão.
type Outcome int

const (
	// OutcomeAdmitted: dentro da cota, o handler é chamado.
	OutcomeAdmitted Outcome = iota
	// OutcomeBypassed: token secreto correto, nenhuma contagem é feita.
	OutcomeBypassed
	OutcomeInvalidRequest
	OutcomeUnauthorized
	OutcomeTooManyRequests
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdmitted:
		return "admitted"
	case OutcomeBypassed:
		return "bypassed"
	case OutcomeInvalidRequest:
		return "invalid_request"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeTooManyRequests:
		return "too_many_requests"
	default:
		return "unknown"
	}
}

// Allowed indica se o handler protegido deve ser chamado.
func (o Outcome) Allowed() bool {
	return o == OutcomeAdmitted || o == OutcomeBypassed
}

// Request é o que a camada HTTP extrai da requisição de entrada.
type Request struct {
	Key   Key
	Token string
}

type Decision struct {
	Outcome Outcome
	// Count é a contagem da janela atual após esta requisição (0 em bypass/rejeição antecipada).
	Count int
	// RetryAfter é o valor a ser retornado em Retry-After quando a cota estoura.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Allowed é um atalho para Outcome.Allowed.
func (d Decision) Allowed() bool { return d.Outcome.Allowed() }

// Err traduz a decisão para o erro sentinela correspondente (nil quando permitido).
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeInvalidRequest:
		return ErrInvalidRequest
	case OutcomeUnauthorized:
		return ErrUnauthorized
	case OutcomeTooManyRequests:
		return ErrTooManyRequests
	default:
		return nil
	}
}

// ClientRecord é o estado de throttling de um cliente dentro da janela.
//
// Reset guarda a expiração pendente do registro; no máximo uma por cliente,
// nil quando nenhuma está agendada.
type ClientRecord struct {
	Count int
	Reset Eviction
}

// OverflowPolicy define o que acontece com a expiração pendente quando a cota estoura.
type OverflowPolicy int

const (
	// OverflowCancel cancela a expiração e não reagenda: o registro só sai
	// do mapa se outra política for aplicada depois (comportamento base).
	OverflowCancel OverflowPolicy = iota
	// OverflowRearm cancela e agenda uma nova expiração a partir da rejeição.
	OverflowRearm
)

func (p OverflowPolicy) String() string {
	if p == OverflowRearm {
		return "rearm"
	}
	return "cancel"
}

// WindowStore conta requisições por chave em janela fixa.
//
// Hit cria ou incrementa o registro da chave e devolve a contagem resultante;
// ok=false quando a contagem passou de limit. A implementação deve ser atômica
// por chave (contagem + arme/cancelamento da expiração).
type WindowStore interface {
	Hit(key Key, limit int) (count int, ok bool)
}
