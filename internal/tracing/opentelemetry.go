package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"pinnacle/internal/constants"
)

const (
	tracerName = "pinnacle"

	defaultShutdownTimeout = 5 * time.Second
)

// Span attribute keys for payload decoding
const (
	AttrPayloadType = attribute.Key("pinnacle.payload.type")
	AttrVariant     = attribute.Key("pinnacle.payload.variant")
	AttrEventType   = attribute.Key("pinnacle.webhook.event_type")
	AttrErrorCode   = attribute.Key("pinnacle.error.code")
	AttrBodyBytes   = attribute.Key("pinnacle.payload.bytes")
)

// TracingConfig contains OpenTelemetry configuration
type TracingConfig struct {
	ServiceName        string  `json:"service_name"`
	ServiceVersion     string  `json:"service_version"`
	Environment        string  `json:"environment"`
	OTLPEndpoint       string  `json:"otlp_endpoint"`
	SampleRate         float64 `json:"sample_rate"`
	Enabled            bool    `json:"enabled"`
	UseStdout          bool    `json:"use_stdout"`
	ShutdownTimeoutSec int     `json:"shutdown_timeout_sec"`
}

// DefaultTracingConfig returns sensible defaults
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:        constants.DefaultServiceName,
		ServiceVersion:     constants.DefaultServiceVersion,
		Environment:        constants.DefaultEnvironment,
		OTLPEndpoint:       "http://localhost:4318/v1/traces",
		SampleRate:         constants.DefaultTracingSampleRate,
		Enabled:            false,
		UseStdout:          true,
		ShutdownTimeoutSec: int(defaultShutdownTimeout / time.Second),
	}
}

// Validate checks an enabled configuration; disabled tracing is never invalid.
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return fmt.Errorf("tracing: service_name is required")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing: sample_rate must be between 0 and 1, got %g", c.SampleRate)
	}
	if !c.UseStdout && c.OTLPEndpoint == "" {
		return fmt.Errorf("tracing: otlp_endpoint is required when use_stdout is false")
	}
	return nil
}

func (c TracingConfig) shutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSec <= 0 {
		return defaultShutdownTimeout
	}
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// TracingManager manages OpenTelemetry setup and lifecycle
type TracingManager struct {
	config         TracingConfig
	logger         *logrus.Logger
	mu             sync.Mutex
	tracerProvider *trace.TracerProvider
}

// NewTracingManager creates a new tracing manager. A nil logger is replaced
// with a silent one.
func NewTracingManager(config TracingConfig, logger *logrus.Logger) *TracingManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &TracingManager{
		config: config,
		logger: logger,
	}
}

// Initialize sets up OpenTelemetry tracing
func (tm *TracingManager) Initialize(ctx context.Context) error {
	if !tm.config.Enabled {
		tm.logger.Info("OpenTelemetry tracing is disabled")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("tracing: context cancelled before initialization: %w", err)
	}
	if err := tm.config.Validate(); err != nil {
		return err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(tm.config.ServiceName),
			semconv.ServiceVersionKey.String(tm.config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(tm.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter trace.SpanExporter
	if tm.config.UseStdout {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		tm.logger.Info("Using stdout trace exporter")
	} else {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(tm.config.OTLPEndpoint))
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		tm.logger.WithField("endpoint", tm.config.OTLPEndpoint).Info("Using OTLP HTTP trace exporter")
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(tm.config.SampleRate))),
	)

	tm.mu.Lock()
	tm.tracerProvider = tp
	tm.mu.Unlock()

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	tm.logger.WithFields(logrus.Fields{
		"service":     tm.config.ServiceName,
		"sample_rate": tm.config.SampleRate,
	}).Info("OpenTelemetry tracing initialized")

	return nil
}

// Shutdown flushes and stops the tracer provider. Calling it more than once
// is safe.
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	tm.mu.Lock()
	tp := tm.tracerProvider
	tm.tracerProvider = nil
	tm.mu.Unlock()

	if tp == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, tm.config.shutdownTimeout())
	defer cancel()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	tm.logger.Info("OpenTelemetry tracing shutdown completed")
	return nil
}

// GetTracer returns a tracer instance
func (tm *TracingManager) GetTracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span with the given name and context
func StartSpan(ctx context.Context, spanName string, attributes ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, spanName)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	return spanCtx, span
}

// StartDecodeSpan starts a span around decoding one payload of typeName.
func StartDecodeSpan(ctx context.Context, typeName string, size int) (context.Context, oteltrace.Span) {
	return StartSpan(ctx, "pinnacle.decode",
		AttrPayloadType.String(typeName),
		AttrBodyBytes.Int(size),
	)
}

// AddSpanAttributes adds attributes to the current span
func AddSpanAttributes(ctx context.Context, attributes ...attribute.KeyValue) {
	span := oteltrace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attributes...)
	}
}

// SetSpanStatus sets the status of the current span
func SetSpanStatus(ctx context.Context, code codes.Code, description string) {
	span := oteltrace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetStatus(code, description)
	}
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, attributes ...attribute.KeyValue) {
	if err == nil {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err, oteltrace.WithAttributes(attributes...))
		span.SetStatus(codes.Error, err.Error())
	}
}

// TraceID returns the OpenTelemetry trace ID of the span in ctx, or "" when
// there is no valid span.
func TraceID(ctx context.Context) string {
	sc := oteltrace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the OpenTelemetry span ID of the span in ctx, or "".
func SpanID(ctx context.Context) string {
	sc := oteltrace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
