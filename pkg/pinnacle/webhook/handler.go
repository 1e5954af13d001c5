package webhook

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/validation"
	"pinnacle/pkg/circuitbreaker"
)

// HandlerConfig bounds a single webhook delivery
type HandlerConfig struct {
	MaxBodyBytes   int64
	HandlerTimeout time.Duration
}

// DefaultHandlerConfig returns limits taken from internal/constants
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		MaxBodyBytes:   constants.DefaultMaxBodyBytes,
		HandlerTimeout: time.Duration(constants.DefaultHandlerTimeoutSec) * time.Second,
	}
}

// Acknowledgement is the body written for accepted deliveries
type Acknowledgement struct {
	Status    string `json:"status"`
	EventType string `json:"event_type"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler is an http.Handler that feeds POSTed webhook bodies to a
// Dispatcher. It answers 200 when the event was handled, 202 when no handler
// is registered for its type, 400 for payloads that do not decode, and 500
// or 503 when the handler fails.
type Handler struct {
	dispatcher *Dispatcher
	logger     *errors.Logger
	config     HandlerConfig
}

// NewHandler creates a Handler; zero config values take their defaults
func NewHandler(dispatcher *Dispatcher, logger *logrus.Logger, config HandlerConfig) *Handler {
	defaults := DefaultHandlerConfig()
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = defaults.HandlerTimeout
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Handler{
		dispatcher: dispatcher,
		logger:     errors.NewLoggerFrom(logger),
		config:     config,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := errors.RequestIDFromContext(ctx)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, ctx, http.StatusMethodNotAllowed,
			errors.New(errors.ErrCodeInvalidInput, "method not allowed").
				WithContext("method", r.Method).
				WithUserMessage("Webhooks must be delivered with POST"))
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		h.fail(w, ctx, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.HandlerTimeout)
	defer cancel()

	event, err := h.dispatcher.Handle(ctx, body)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeUnhandledEvent {
			h.logger.WithFields(eventFields(event)).Info("Webhook event has no handler; acknowledged")
			h.writeJSON(w, http.StatusAccepted, Acknowledgement{Status: "ignored", EventType: event.Tag(), RequestID: requestID})
			return
		}
		h.fail(w, ctx, err)
		return
	}

	h.logger.WithFields(eventFields(event)).WithField(constants.LogFieldRequestID, requestID).Info("Webhook event processed")
	h.writeJSON(w, http.StatusOK, Acknowledgement{Status: "ok", EventType: event.Tag(), RequestID: requestID})
}

// readBody reads at most MaxBodyBytes, rejecting larger bodies whether or not
// they declared a Content-Length.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if err := validation.ValidateHTTPRequestSize(r, h.config.MaxBodyBytes); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewPayloadTooLargeError(h.config.MaxBodyBytes)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read request body").
			WithUserMessage("Unable to read request body")
	}
	return body, nil
}

func (h *Handler) fail(w http.ResponseWriter, ctx context.Context, err error) {
	status := errors.HTTPStatusCode(err)
	fields := logrus.Fields{
		constants.LogFieldRequestID:  errors.RequestIDFromContext(ctx),
		constants.LogFieldStatusCode: status,
	}

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.LogRetryableError(err, "Webhook handler failed", fields)
		var openErr *circuitbreaker.OpenError
		if stderrors.As(err, &openErr) && openErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(openErr.RetryAfter.Seconds()))))
		}
	default:
		h.logger.LogWarn(err, "Webhook payload rejected", fields)
	}

	h.writeError(w, ctx, status, err)
}

func (h *Handler) writeError(w http.ResponseWriter, ctx context.Context, status int, err error) {
	if appErr, ok := errors.As(err); ok {
		err = errors.WithContextFromRequest(appErr, ctx)
	}
	h.writeJSON(w, status, errors.ToHTTPResponse(err, errors.RequestIDFromContext(ctx)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode webhook response")
	}
}
