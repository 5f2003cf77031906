package application

import (
	"crypto/subtle"
	"strings"
	"time"

	"wikidot-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de admissão: atribuição do cliente, bypass por
// token secreto e cota por janela.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.WindowStore
	Limit int

	// SecretToken vazio deixa o endpoint aberto, sujeito apenas à cota.
	SecretToken string
	// AllowAnonymous deixa requisições sem token seguirem para a cota mesmo
	// com SecretToken configurado (sem ele, respondem Unauthorized).
	AllowAnonymous bool

	RetryAfter time.Duration
}

func (s Service) Decide(req domain.Request) domain.Decision {
	if strings.TrimSpace(string(req.Key)) == "" {
		return domain.Decision{Outcome: domain.OutcomeInvalidRequest}
	}

	if s.SecretToken != "" {
		if req.Token == "" {
			if !s.AllowAnonymous {
				return domain.Decision{Outcome: domain.OutcomeUnauthorized}
			}
		} else if tokenMatches(req.Token, s.SecretToken) {
			return domain.Decision{Outcome: domain.OutcomeBypassed}
		}
	}

	if s.Store == nil {
		return domain.Decision{Outcome: domain.OutcomeAdmitted}
	}

	count, ok := s.Store.Hit(req.Key, s.Limit)
	if !ok {
		return domain.Decision{
			Outcome:    domain.OutcomeTooManyRequests,
			Count:      count,
			RetryAfter: s.RetryAfter,
		}
	}
	return domain.Decision{Outcome: domain.OutcomeAdmitted, Count: count}
}

func tokenMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
