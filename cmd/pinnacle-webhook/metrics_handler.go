package main

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/metrics"
	"pinnacle/pkg/circuitbreaker"
)

type metricsResponse struct {
	metrics.Snapshot
	CircuitBreaker *circuitbreaker.Stats `json:"circuit_breaker,omitempty"`
}

// handleMetrics returns current application metrics
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := errors.RequestIDFromContext(r.Context())

		s.logger.WithFields(logrus.Fields{
			constants.LogFieldRequestID: requestID,
			constants.LogFieldPath:      "/metrics",
		}).Debug("Serving metrics endpoint")

		var stats *circuitbreaker.Stats
		if s.breaker != nil {
			st := s.breaker.Stats()
			stats = &st
			metrics.SetGauge("circuit_breaker_state", float64(st.State), map[string]string{"name": st.Name},
				"Handler circuit breaker state (0 closed, 1 open, 2 half-open)")
		}
		resp := metricsResponse{Snapshot: metrics.GetAllMetrics(), CircuitBreaker: stats}

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		writeJSON(w, http.StatusOK, resp, s.logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logrus.Logger) {
	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}
