package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestDefaultTracingConfig(t *testing.T) {
	config := DefaultTracingConfig()

	assert.Equal(t, "pinnacle-webhook", config.ServiceName)
	assert.Equal(t, "http://localhost:4318/v1/traces", config.OTLPEndpoint)
	assert.Equal(t, 0.1, config.SampleRate)
	assert.False(t, config.Enabled)
	assert.True(t, config.UseStdout)
	assert.Equal(t, 5, config.ShutdownTimeoutSec)
	assert.NoError(t, config.Validate())
}

func TestTracingConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      TracingConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:   "Valid config with stdout",
			config: TracingConfig{ServiceName: "svc", SampleRate: 0.5, Enabled: true, UseStdout: true},
		},
		{
			name: "Valid config with OTLP",
			config: TracingConfig{
				ServiceName: "svc", SampleRate: 1.0, Enabled: true,
				OTLPEndpoint: "http://localhost:4318/v1/traces",
			},
		},
		{
			name:   "Disabled config - no validation",
			config: TracingConfig{Enabled: false},
		},
		{
			name:        "Missing service name",
			config:      TracingConfig{SampleRate: 0.5, Enabled: true, UseStdout: true},
			expectError: true,
			errorMsg:    "service_name is required",
		},
		{
			name:        "Invalid sample rate - negative",
			config:      TracingConfig{ServiceName: "svc", SampleRate: -0.1, Enabled: true, UseStdout: true},
			expectError: true,
			errorMsg:    "sample_rate must be between 0 and 1",
		},
		{
			name:        "Invalid sample rate - too high",
			config:      TracingConfig{ServiceName: "svc", SampleRate: 1.5, Enabled: true, UseStdout: true},
			expectError: true,
			errorMsg:    "sample_rate must be between 0 and 1",
		},
		{
			name:        "Missing OTLP endpoint when not using stdout",
			config:      TracingConfig{ServiceName: "svc", SampleRate: 0.5, Enabled: true},
			expectError: true,
			errorMsg:    "otlp_endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTracingManager_NilLogger(t *testing.T) {
	tm := NewTracingManager(TracingConfig{ServiceName: "svc"}, nil)
	require.NotNil(t, tm)
	assert.NotNil(t, tm.logger)
	assert.NoError(t, tm.Initialize(context.Background()))
}

func TestTracingManager_DisabledTracing(t *testing.T) {
	tm := NewTracingManager(TracingConfig{Enabled: false}, silentLogger())

	ctx := context.Background()
	require.NoError(t, tm.Initialize(ctx))
	require.NoError(t, tm.Shutdown(ctx))
}

func TestTracingManager_InitializeRejectsInvalidConfig(t *testing.T) {
	tm := NewTracingManager(TracingConfig{Enabled: true, UseStdout: true, SampleRate: 2}, silentLogger())

	err := tm.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_name")
}

func TestTracingManager_InitializeWithCancelledContext(t *testing.T) {
	tm := NewTracingManager(TracingConfig{ServiceName: "svc", SampleRate: 1, Enabled: true, UseStdout: true}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tm.Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTracingManager_IdempotentShutdown(t *testing.T) {
	tm := NewTracingManager(TracingConfig{
		ServiceName: "svc", SampleRate: 1, Enabled: true, UseStdout: true, ShutdownTimeoutSec: 2,
	}, silentLogger())

	ctx := context.Background()
	require.NoError(t, tm.Initialize(ctx))
	assert.NotNil(t, tm.GetTracer("test"))

	for i := 0; i < 3; i++ {
		require.NoError(t, tm.Shutdown(ctx))
	}
}

func TestTracingConfig_ShutdownTimeout(t *testing.T) {
	tests := []struct {
		seconds int
		want    time.Duration
	}{
		{seconds: 10, want: 10 * time.Second},
		{seconds: 0, want: 5 * time.Second},
		{seconds: -1, want: 5 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TracingConfig{ShutdownTimeoutSec: tt.seconds}.shutdownTimeout())
	}
}

func TestStartDecodeSpan(t *testing.T) {
	tm := NewTracingManager(TracingConfig{ServiceName: "svc", SampleRate: 1, Enabled: true, UseStdout: true}, silentLogger())
	ctx := context.Background()
	require.NoError(t, tm.Initialize(ctx))
	defer func() { _ = tm.Shutdown(ctx) }()

	spanCtx, span := StartDecodeSpan(ctx, "WebhookEvent", 128)
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.Len(t, TraceID(spanCtx), 32)
	assert.Len(t, SpanID(spanCtx), 16)

	// Helpers are no-ops when they are handed an error-free or span-less context.
	AddSpanAttributes(spanCtx, AttrVariant.String("MESSAGE.STATUS"), attribute.Int("n", 1))
	SetSpanStatus(spanCtx, codes.Ok, "")
	RecordError(spanCtx, nil)
	RecordError(context.Background(), errors.New("ignored"))
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	assert.NotEqual(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "req_"))
	assert.Len(t, id1, len("req_")+16)
}
