package domain

import "errors"

var (
	// ErrInvalidRequest: não foi possível atribuir a requisição a um cliente.
	ErrInvalidRequest = errors.New("invalid request: client identity unavailable")
	// ErrUnauthorized: token exigido e ausente.
	ErrUnauthorized = errors.New("access denied: token required")
	// ErrTooManyRequests: cota da janela atual excedida.
	ErrTooManyRequests = errors.New("too many requests")
)

// IsRejection indica se err é uma das rejeições terminais do controle de admissão.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrTooManyRequests)
}

// ErrNoSlot: o limite de requisições simultâneas não liberou vaga a tempo.
var ErrNoSlot = errors.New("no concurrency slot available")
