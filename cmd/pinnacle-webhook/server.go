package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pinnacle/internal/config"
	apperrors "pinnacle/internal/errors"
	"pinnacle/internal/middleware"
	"pinnacle/pkg/circuitbreaker"
	"pinnacle/pkg/pinnacle/webhook"
)

type Server struct {
	router     *mux.Router
	logger     *logrus.Logger
	cfg        *config.Config
	dispatcher *webhook.Dispatcher
	breaker    *circuitbreaker.CircuitBreaker
	server     *http.Server
}

func NewServer(cfg *config.Config, dispatcher *webhook.Dispatcher, breaker *circuitbreaker.CircuitBreaker, logger *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		logger:     logger,
		cfg:        cfg,
		dispatcher: dispatcher,
		breaker:    breaker,
	}

	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.ObservabilityMiddleware(s.logger, s.cfg.Server.TrustProxyHeaders))

	s.router.NotFoundHandler = s.handleNotFound()

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	intake := webhook.NewHandler(s.dispatcher, s.logger, webhook.HandlerConfig{
		MaxBodyBytes:   s.cfg.Webhook.MaxBodyBytes,
		HandlerTimeout: time.Duration(s.cfg.Webhook.HandlerTimeoutSec) * time.Second,
	})
	payloadLogging := middleware.PayloadLoggingMiddleware(s.logger, s.cfg.PayloadLogging)
	s.router.Handle(s.cfg.Webhook.Path, payloadLogging(intake)).Methods(http.MethodPost)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"addr":         s.cfg.Server.Addr,
		"webhook_path": s.cfg.Webhook.Path,
	}).Info("Starting webhook server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	CircuitBreaker string `json:"circuit_breaker,omitempty"`
}

// handleHealth reports degraded while the handler circuit breaker is open so
// load balancers can see that deliveries are being refused.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Version: Version}
		status := http.StatusOK
		if s.breaker != nil {
			state := s.breaker.State()
			resp.CircuitBreaker = state.String()
			if state == circuitbreaker.StateOpen {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, resp, s.logger)
	}
}

// handleNotFound runs outside the router middleware, so the response carries
// no request ID.
func (s *Server) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		appErr := apperrors.NewNotFoundError("route", r.URL.Path)
		writeJSON(w, http.StatusNotFound, apperrors.ToHTTPResponse(appErr, requestID), s.logger)
	}
}
