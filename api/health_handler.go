package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder      Responder
	logger         zerolog.Logger
	reconciliation ReconciliationCounter
	startupTime    time.Time
}

func newHealthHandler(reconciliation ReconciliationCounter, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		reconciliation: reconciliation,
		startupTime:    startupTime,
	}
}

type HealthResponse struct {
	Status                  string    `json:"status"`
	StartedAt               time.Time `json:"startedAt"`
	UptimeSeconds           int64     `json:"uptimeSeconds"`
	OpenReconciliationTasks *int64    `json:"openReconciliationTasks,omitempty"`
}

// health reports liveness
// @Summary Health check
// @Description Reports uptime and the number of open reconciliation tasks
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is up"
// @Router /health [get]
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:        "ok",
			StartedAt:     h.startupTime.UTC(),
			UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		}

		if h.reconciliation != nil {
			open, err := h.reconciliation.CountOpen(r.Context())
			if err != nil {
				h.logger.Warn().Err(err).Msg("could not count open reconciliation tasks")
				response.Status = "degraded"
			} else {
				response.OpenReconciliationTasks = &open
			}
		}

		h.responder.WriteJSON(w, response)
	}
}
