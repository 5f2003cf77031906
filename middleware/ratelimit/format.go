package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"wikidot-gateway/middleware/ratelimit/domain"
)

// Message é o corpo JSON de toda rejeição.
type Message struct {
	Message string `json:"message"`
}

const (
	msgInvalidRequest     = "Invalid Request"
	msgAccessDenied       = "Access Denied"
	msgTooManyRequests    = "Too Many Requests"
	msgServiceUnavailable = "Service Unavailable"
)

func rejection(o domain.Outcome) (int, string) {
	switch o {
	case domain.OutcomeInvalidRequest:
		return http.StatusBadRequest, msgInvalidRequest
	case domain.OutcomeUnauthorized:
		return http.StatusUnauthorized, msgAccessDenied
	case domain.OutcomeTooManyRequests:
		return http.StatusTooManyRequests, msgTooManyRequests
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// WriteMessage responde status com {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Message{Message: msg})
}

// formatSeconds arredonda para cima: 500ms vira "1", nunca "0".
func formatSeconds(d time.Duration) string { return strconv.Itoa(int(math.Ceil(d.Seconds()))) }
