package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"wikidot-gateway/middleware/ratelimit/infra"
)

// StatsReader é implementado por infra.MemoryStatsStore e infra.RedisStatsStore.
type StatsReader interface {
	Totals(ctx context.Context) (infra.Counters, error)
}

// InFlighter expõe a ocupação do limite de concorrência (infra.ChanPool).
type InFlighter interface {
	InFlight() int
	Cap() int
}

type admissionStats struct {
	Totals      infra.Counters `json:"totals"`
	InFlight    int            `json:"in_flight"`
	Concurrency int            `json:"concurrency_max"`
}

// AdmissionStats expõe os contadores de decisões de admissão.
func AdmissionStats(stats StatsReader, pool InFlighter, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := admissionStats{Totals: infra.Counters{}}
		if stats != nil {
			totals, err := stats.Totals(r.Context())
			if err != nil {
				log.Error("read admission stats", zap.Error(err))
				internalError(w)
				return
			}
			resp.Totals = totals
		}
		if pool != nil {
			resp.InFlight = pool.InFlight()
			resp.Concurrency = pool.Cap()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
