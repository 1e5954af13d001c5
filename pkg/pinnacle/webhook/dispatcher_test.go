package webhook

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinnacle/internal/errors"
	"pinnacle/internal/metrics"
	"pinnacle/internal/retry"
	"pinnacle/pkg/circuitbreaker"
	"pinnacle/pkg/pinnacle/types"
)

const (
	statusPayload   = `{"type":"MESSAGE.STATUS","messageId":"msg_1","status":"delivered","timestamp":"2025-06-02T15:04:05Z"}`
	receivedPayload = `{"type":"MESSAGE.RECEIVED","messageId":"msg_2","from":"+14155550111","to":"+14155550122","messageType":"SMS","message":{"text":"hi"},"timestamp":"2025-06-02T15:04:05Z"}`
	typingPayload   = `{"type":"USER.TYPING","from":"+14155550111","to":"agent_acme","timestamp":"2025-06-02T15:04:05Z"}`
)

var errDownstream = stderrors.New("downstream unavailable")

func fastRetry(attempts int) retry.BackoffConfig {
	return retry.BackoffConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
		MaxAttempts:  attempts,
	}
}

func TestDispatcher_RoutesByEventType(t *testing.T) {
	d := NewDispatcher()

	var status types.MessageStatusEvent
	var received types.MessageReceivedEvent
	var typing types.UserTypingEvent
	d.OnMessageStatus(func(ctx context.Context, e types.MessageStatusEvent) error {
		status = e
		return nil
	})
	d.OnMessageReceived(func(ctx context.Context, e types.MessageReceivedEvent) error {
		received = e
		return nil
	})
	d.OnUserTyping(func(ctx context.Context, e types.UserTypingEvent) error {
		typing = e
		return nil
	})

	tests := []struct {
		name    string
		payload string
		want    types.WebhookEventType
	}{
		{name: "status", payload: statusPayload, want: types.WebhookEventMessageStatus},
		{name: "received", payload: receivedPayload, want: types.WebhookEventMessageReceived},
		{name: "typing", payload: typingPayload, want: types.WebhookEventUserTyping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := d.Handle(context.Background(), []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Type())
		})
	}

	assert.Equal(t, types.MessageStatusDelivered, status.Status)
	assert.Equal(t, "sms", received.Message.Tag())
	assert.Equal(t, "+14155550111", typing.From)
}

func TestDispatcher_HandlerSeesEventTypeInContext(t *testing.T) {
	d := NewDispatcher()
	var ctxFields map[string]interface{}
	d.OnUserTyping(func(ctx context.Context, e types.UserTypingEvent) error {
		ctxFields = errors.FromContext(ctx)
		return nil
	})

	_, err := d.Handle(errors.ContextWithRequestID(context.Background(), "req_1"), []byte(typingPayload))
	require.NoError(t, err)
	assert.Equal(t, "USER.TYPING", ctxFields["event_type"])
	assert.Equal(t, "req_1", ctxFields["request_id"])
}

func TestDispatcher_NoHandler(t *testing.T) {
	d := NewDispatcher()

	event, err := d.Handle(context.Background(), []byte(typingPayload))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoHandler)
	assert.Equal(t, errors.ErrCodeUnhandledEvent, errors.GetCode(err))
	assert.Equal(t, types.WebhookEventUserTyping, event.Type(), "decoded event is returned with the error")
	assert.False(t, d.Handles(types.WebhookEventUserTyping))
}

func TestDispatcher_DecodeErrors(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		called = true
		return nil
	})

	tests := []struct {
		name     string
		payload  string
		wantCode errors.ErrorCode
		field    string
	}{
		{name: "malformed", payload: `{"type":`, wantCode: errors.ErrCodeTypeMismatch},
		{name: "missing discriminant", payload: `{"messageId":"msg_1"}`, wantCode: errors.ErrCodeMissingField, field: "type"},
		{name: "unknown event type", payload: `{"type":"MESSAGE.DELETED"}`, wantCode: errors.ErrCodeVariantMismatch},
		{name: "missing required field", payload: `{"type":"MESSAGE.STATUS","messageId":"msg_1","timestamp":"2025-06-02T15:04:05Z"}`, wantCode: errors.ErrCodeMissingField, field: "status"},
		{name: "wrong kind", payload: `{"type":"MESSAGE.STATUS","messageId":7,"status":"sent","timestamp":"2025-06-02T15:04:05Z"}`, wantCode: errors.ErrCodeTypeMismatch, field: "messageId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Handle(context.Background(), []byte(tt.payload))
			require.Error(t, err)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, appErr.Context["field"])
			}
		})
	}
	assert.False(t, called, "handlers never see undecodable events")
}

func TestDispatcher_AcceptsWellFormedInboundEvents(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, got types.WebhookEvent)
	}{
		{
			name:    "short code sender",
			payload: `{"type":"MESSAGE.RECEIVED","messageId":"msg_2","from":"72345","to":"+14155550122","messageType":"SMS","message":{"text":"STOP"},"timestamp":"2025-06-02T15:04:05Z"}`,
			check: func(t *testing.T, got types.WebhookEvent) {
				ev := got.Payload().(types.MessageReceivedEvent)
				assert.Equal(t, "72345", ev.From)
			},
		},
		{
			name:    "status value added later",
			payload: `{"type":"MESSAGE.STATUS","messageId":"msg_1","status":"undelivered","timestamp":"2025-06-02T15:04:05Z"}`,
			check: func(t *testing.T, got types.WebhookEvent) {
				ev := got.Payload().(types.MessageStatusEvent)
				assert.Equal(t, types.MessageStatus("undelivered"), ev.Status)
				assert.False(t, ev.Status.IsKnown())
			},
		},
		{
			name:    "error alongside a non-failed status",
			payload: `{"type":"MESSAGE.STATUS","messageId":"msg_1","status":"sent","error":"carrier warning","timestamp":"2025-06-02T15:04:05Z"}`,
			check: func(t *testing.T, got types.WebhookEvent) {
				ev := got.Payload().(types.MessageStatusEvent)
				require.NotNil(t, ev.Error)
			},
		},
		{
			name:    "unknown message type",
			payload: `{"type":"MESSAGE.RECEIVED","messageId":"msg_2","from":"+14155550111","to":"+14155550122","messageType":"WHATSAPP","message":{"text":"hi"},"timestamp":"2025-06-02T15:04:05Z"}`,
			check: func(t *testing.T, got types.WebhookEvent) {
				ev := got.Payload().(types.MessageReceivedEvent)
				assert.Equal(t, types.MessageType("WHATSAPP"), ev.MessageType)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher()
			var calls atomic.Int32
			d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
				calls.Add(1)
				return nil
			})
			d.OnMessageReceived(func(context.Context, types.MessageReceivedEvent) error {
				calls.Add(1)
				return nil
			})

			got, err := d.Handle(context.Background(), []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, int32(1), calls.Load())
			tt.check(t, got)
		})
	}
}

func TestDispatcher_HandlerFailure(t *testing.T) {
	d := NewDispatcher()
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		return errDownstream
	})

	_, err := d.Handle(context.Background(), []byte(statusPayload))

	require.Error(t, err)
	assert.ErrorIs(t, err, errDownstream)
	assert.Equal(t, errors.ErrCodeHandlerFailed, errors.GetCode(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestDispatcher_RetriesRetryableErrors(t *testing.T) {
	d := NewDispatcher(WithRetry(fastRetry(3)))

	var calls int32
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return Retryable(errDownstream)
		}
		return nil
	})

	_, err := d.Handle(context.Background(), []byte(statusPayload))
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDispatcher_DoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(WithRetry(fastRetry(5)))

	var calls int32
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		atomic.AddInt32(&calls, 1)
		return errDownstream
	})

	_, err := d.Handle(context.Background(), []byte(statusPayload))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDispatcher_ExhaustedRetriesStayRetryable(t *testing.T) {
	d := NewDispatcher(WithRetry(fastRetry(2)))
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		return Retryable(errDownstream)
	})

	_, err := d.Handle(context.Background(), []byte(statusPayload))
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.ErrorIs(t, err, errDownstream)
}

func TestDispatcher_InvalidRetryConfigIsIgnored(t *testing.T) {
	d := NewDispatcher(WithRetry(retry.BackoffConfig{MaxAttempts: 0}))

	var calls int32
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		atomic.AddInt32(&calls, 1)
		return Retryable(errDownstream)
	})

	_, err := d.Handle(context.Background(), []byte(statusPayload))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDispatcher_CircuitBreaker(t *testing.T) {
	cb := circuitbreaker.New("webhook-handlers", circuitbreaker.Config{
		MaxFailures:      2,
		OpenTimeout:      time.Hour,
		HalfOpenMaxCalls: 1,
	}, nil)
	d := NewDispatcher(WithCircuitBreaker(cb))

	var calls int32
	d.OnMessageStatus(func(context.Context, types.MessageStatusEvent) error {
		atomic.AddInt32(&calls, 1)
		return errDownstream
	})

	for i := 0; i < 2; i++ {
		_, err := d.Handle(context.Background(), []byte(statusPayload))
		require.Error(t, err)
	}
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	_, err := d.Handle(context.Background(), []byte(statusPayload))
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open breaker must not call the handler")
	assert.True(t, circuitbreaker.IsOpenError(err))
	assert.True(t, errors.IsRetryable(err))

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "webhook-handlers", appErr.Context["circuit_breaker"])
}

func TestDispatcher_TimeoutIsRetryable(t *testing.T) {
	d := NewDispatcher()
	d.OnUserTyping(func(ctx context.Context, e types.UserTypingEvent) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Handle(ctx, []byte(typingPayload))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.IsRetryable(err))
}

func TestDispatcher_RecordsMetrics(t *testing.T) {
	metrics.GetRegistry().Reset()
	d := NewDispatcher()
	d.OnMessageReceived(func(context.Context, types.MessageReceivedEvent) error { return nil })

	_, err := d.Handle(context.Background(), []byte(receivedPayload))
	require.NoError(t, err)
	_, err = d.Handle(context.Background(), []byte(`{"type":"MESSAGE.DELETED"}`))
	require.Error(t, err)

	snap := metrics.GetAllMetrics()
	assert.Equal(t, float64(1), snap.Counters["decode_total_outcome:ok_type:WebhookEvent"].Value)
	assert.Equal(t, float64(1), snap.Counters["decode_total_outcome:VARIANT_MISMATCH_type:WebhookEvent"].Value)
	assert.Equal(t, float64(1), snap.Counters["variant_total_union:WebhookEvent_variant:MESSAGE.RECEIVED"].Value)
	assert.Equal(t, float64(1), snap.Counters["variant_total_union:MessageEventContent_variant:sms"].Value)
	assert.Equal(t, float64(1), snap.Counters["webhook_events_handled_total_event_type:MESSAGE.RECEIVED_outcome:ok"].Value)
	assert.Equal(t, int64(1), snap.Timers["webhook_handler_duration_event_type:MESSAGE.RECEIVED"].Count)
}

func TestEventFields_MasksIdentifiers(t *testing.T) {
	event, err := types.DecodeWebhookEvent([]byte(receivedPayload))
	require.NoError(t, err)

	fields := eventFields(event)
	assert.Equal(t, "MESSAGE.RECEIVED", fields["event_type"])
	assert.Equal(t, "+*******0111", fields["from"])
	assert.Equal(t, "sms", fields["variant"])
	assert.NotContains(t, fields, "text")
}

func TestRetryable(t *testing.T) {
	assert.Nil(t, Retryable(nil))

	err := Retryable(errDownstream)
	assert.True(t, errors.IsRetryable(err))
	assert.ErrorIs(t, err, errDownstream)
}
