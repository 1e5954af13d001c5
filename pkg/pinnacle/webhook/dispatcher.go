// Package webhook decodes Pinnacle webhook deliveries and routes each event to
// the handler registered for its type.
package webhook

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/metrics"
	"pinnacle/internal/privacy"
	"pinnacle/internal/retry"
	"pinnacle/internal/tracing"
	"pinnacle/pkg/circuitbreaker"
	"pinnacle/pkg/pinnacle/types"
)

const eventUnion = "WebhookEvent"

// Metric names recorded by the dispatcher
const (
	HandledTotal    = "webhook_events_handled_total"
	HandlerDuration = "webhook_handler_duration"
	HandlerAttempts = "webhook_handler_attempts"
)

// ErrNoHandler is wrapped by errors returned for events whose type has no
// registered handler.
var ErrNoHandler = stderrors.New("no handler registered")

// Typed handlers for each webhook event.
type (
	MessageStatusHandler   func(ctx context.Context, event types.MessageStatusEvent) error
	MessageReceivedHandler func(ctx context.Context, event types.MessageReceivedEvent) error
	UserTypingHandler      func(ctx context.Context, event types.UserTypingEvent) error
)

type eventHandler func(ctx context.Context, event types.WebhookEvent) error

// Dispatcher decodes webhook payloads and invokes the handler registered for
// the event's type. Handlers may be registered concurrently with Handle.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[types.WebhookEventType]eventHandler

	logger  *logrus.Logger
	backoff *retry.Backoff
	breaker *circuitbreaker.CircuitBreaker
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used for dispatch diagnostics
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRetry retries handlers that fail with a retryable error (see Retryable)
// using exponential backoff. A config that fails validation is ignored.
func WithRetry(config retry.BackoffConfig) Option {
	return func(d *Dispatcher) {
		if err := config.Validate(); err != nil {
			return
		}
		d.backoff = retry.NewBackoff(config)
	}
}

// WithCircuitBreaker routes every handler call through cb. While cb is open
// events are rejected with a retryable error without calling the handler.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(d *Dispatcher) {
		d.breaker = cb
	}
}

// NewDispatcher creates a dispatcher with no handlers
func NewDispatcher(opts ...Option) *Dispatcher {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	d := &Dispatcher{
		handlers: make(map[types.WebhookEventType]eventHandler),
		logger:   logger,
		backoff:  retry.NewBackoff(retry.BackoffConfig{MaxAttempts: 1, Multiplier: 1}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnMessageStatus registers the handler for MESSAGE.STATUS events, replacing
// any previous one.
func (d *Dispatcher) OnMessageStatus(h MessageStatusHandler) {
	d.register(types.WebhookEventMessageStatus, func(ctx context.Context, event types.WebhookEvent) error {
		payload, _ := event.Payload().(types.MessageStatusEvent)
		return h(ctx, payload)
	})
}

// OnMessageReceived registers the handler for MESSAGE.RECEIVED events
func (d *Dispatcher) OnMessageReceived(h MessageReceivedHandler) {
	d.register(types.WebhookEventMessageReceived, func(ctx context.Context, event types.WebhookEvent) error {
		payload, _ := event.Payload().(types.MessageReceivedEvent)
		return h(ctx, payload)
	})
}

// OnUserTyping registers the handler for USER.TYPING events
func (d *Dispatcher) OnUserTyping(h UserTypingHandler) {
	d.register(types.WebhookEventUserTyping, func(ctx context.Context, event types.WebhookEvent) error {
		payload, _ := event.Payload().(types.UserTypingEvent)
		return h(ctx, payload)
	})
}

func (d *Dispatcher) register(eventType types.WebhookEventType, h eventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = h
}

// Handles reports whether a handler is registered for eventType
func (d *Dispatcher) Handles(eventType types.WebhookEventType) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[eventType]
	return ok
}

// Handle decodes raw and dispatches the event. The decoded
// event is returned whenever decoding succeeded, even if dispatch failed.
// All errors are *errors.AppError.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) (types.WebhookEvent, error) {
	event, err := d.Decode(ctx, raw)
	if err != nil {
		return types.WebhookEvent{}, err
	}
	return event, d.Dispatch(ctx, event)
}

// Decode turns raw into a WebhookEvent, recording a decode span and metrics.
// Failures are translated with errors.FromDecode. Only the shape is checked:
// senders that are not E.164 numbers and enum values this client does not
// know yet are passed through to the handler.
func (d *Dispatcher) Decode(ctx context.Context, raw []byte) (types.WebhookEvent, error) {
	ctx, span := tracing.StartDecodeSpan(ctx, eventUnion, len(raw))
	defer span.End()

	start := time.Now()
	event, err := types.DecodeWebhookEvent(raw)
	if err != nil {
		appErr := errors.FromDecode(err)
		metrics.RecordDecode(eventUnion, string(appErr.Code), time.Since(start))
		tracing.RecordError(ctx, appErr, tracing.AttrErrorCode.String(string(appErr.Code)))
		return types.WebhookEvent{}, appErr
	}

	metrics.RecordDecode(eventUnion, metrics.OutcomeOK, time.Since(start))
	metrics.RecordVariant(eventUnion, event.Tag())
	variant := event.Tag()
	if received, ok := event.Payload().(types.MessageReceivedEvent); ok {
		// the content variant is the more specific of the two
		variant = received.Message.Tag()
		metrics.RecordVariant("MessageEventContent", variant)
	}
	tracing.AddSpanAttributes(ctx,
		tracing.AttrEventType.String(event.Tag()),
		tracing.AttrVariant.String(variant),
	)
	tracing.SetSpanStatus(ctx, codes.Ok, "")
	return event, nil
}

// Dispatch invokes the handler registered for event's type. A missing
// handler yields an UNHANDLED_EVENT error wrapping ErrNoHandler; a failing
// handler yields a HANDLER_FAILED error.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.WebhookEvent) error {
	eventType := event.Type()

	d.mu.RLock()
	h, ok := d.handlers[eventType]
	d.mu.RUnlock()
	if !ok {
		metrics.IncrementCounter(HandledTotal, map[string]string{"event_type": string(eventType), "outcome": "unhandled"},
			"Webhook events by type and handler outcome")
		return errors.NewUnhandledEventError(string(eventType), ErrNoHandler)
	}

	ctx = errors.ContextWithEventType(ctx, string(eventType))
	ctx, span := tracing.StartSpan(ctx, "pinnacle.webhook.handle", tracing.AttrEventType.String(string(eventType)))
	defer span.End()

	start := time.Now()
	attempts, err := d.backoff.Retry(ctx, func(ctx context.Context) error {
		if d.breaker == nil {
			return h(ctx, event)
		}
		return d.breaker.Execute(ctx, func(ctx context.Context) error {
			return h(ctx, event)
		})
	}, errors.IsRetryable)

	labels := map[string]string{"event_type": string(eventType)}
	metrics.RecordTimer(HandlerDuration, time.Since(start), labels, "Webhook handler latency including retries")
	metrics.AddToCounter(HandlerAttempts, float64(attempts), labels, "Webhook handler invocations including retries")

	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	metrics.IncrementCounter(HandledTotal, map[string]string{"event_type": string(eventType), "outcome": outcome},
		"Webhook events by type and handler outcome")

	entry := d.logger.WithFields(eventFields(event)).WithField("attempts", attempts)
	if err != nil {
		handlerErr := errors.NewHandlerError(string(eventType), err)
		if circuitbreaker.IsOpenError(err) {
			handlerErr = handlerErr.WithContext("circuit_breaker", d.breaker.Name()).
				WithUserMessage("Event processing paused, please retry")
			handlerErr.Retryable = true
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			handlerErr.Retryable = true
		}
		tracing.RecordError(ctx, handlerErr, tracing.AttrErrorCode.String(string(handlerErr.Code)))
		entry.WithError(err).Debug("Webhook handler failed")
		return handlerErr
	}

	entry.Debug("Webhook event handled")
	return nil
}

// Retryable marks a handler error as transient so the dispatcher retries it
// when configured WithRetry.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return errors.WrapRetryable(err, errors.ErrCodeHandlerFailed, "transient handler failure")
}

// eventFields returns masked log fields identifying event
func eventFields(event types.WebhookEvent) logrus.Fields {
	fields := logrus.Fields{constants.LogFieldEventType: event.Tag()}

	switch e := event.Payload().(type) {
	case types.MessageStatusEvent:
		fields[constants.LogFieldMessageID] = privacy.MaskMessageID(e.MessageID)
		fields["status"] = e.Status
	case types.MessageReceivedEvent:
		fields[constants.LogFieldMessageID] = privacy.MaskMessageID(e.MessageID)
		fields[constants.LogFieldFrom] = privacy.MaskPhoneNumber(e.From)
		fields[constants.LogFieldVariant] = e.Message.Tag()
	case types.UserTypingEvent:
		fields[constants.LogFieldFrom] = privacy.MaskPhoneNumber(e.From)
	}
	return fields
}
