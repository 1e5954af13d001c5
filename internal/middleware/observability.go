package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/httputil"
	"pinnacle/internal/metrics"
	"pinnacle/internal/tracing"
)

// RequestIDHeader carries the request ID back to the caller.
const RequestIDHeader = "X-Request-ID"

// ObservabilityMiddleware gives every request an ID and an OpenTelemetry span,
// records request metrics, and logs start and completion. trustProxy selects
// whether X-Forwarded-For and X-Real-IP identify the client.
func ObservabilityMiddleware(logger *logrus.Logger, trustProxy bool) func(http.Handler) http.Handler {
	var (
		mu     sync.Mutex
		active int64
	)
	trackActive := func(delta int64) {
		mu.Lock()
		defer mu.Unlock()
		active += delta
		metrics.SetGauge("http_requests_active", float64(active), nil, "Currently active HTTP requests")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			clientIP := httputil.ClientIP(r, trustProxy)

			ctx, span := tracing.StartSpan(r.Context(), "http_request",
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("user_agent.original", r.Header.Get("User-Agent")),
				attribute.String("client.address", clientIP),
			)
			defer span.End()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = tracing.GenerateRequestID()
			}
			ctx = errors.ContextWithRequestID(ctx, requestID)
			traceID := tracing.TraceID(ctx)
			if traceID != "" {
				ctx = errors.ContextWithTraceID(ctx, traceID)
			}
			r = r.WithContext(ctx)
			w.Header().Set(RequestIDHeader, requestID)

			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			logger.WithFields(logrus.Fields{
				constants.LogFieldRequestID: requestID,
				constants.LogFieldTraceID:   traceID,
				constants.LogFieldSpanID:    tracing.SpanID(ctx),
				constants.LogFieldMethod:    r.Method,
				constants.LogFieldPath:      r.URL.Path,
				constants.LogFieldRemoteIP:  clientIP,
				constants.LogFieldUserAgent: r.Header.Get("User-Agent"),
				"content_length":            r.ContentLength,
			}).Debug("HTTP request started")

			metrics.IncrementCounter("http_requests_total", map[string]string{
				"method":   r.Method,
				"endpoint": r.URL.Path,
			}, "Total HTTP requests")

			trackActive(1)
			defer trackActive(-1)

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			status := strconv.Itoa(wrapper.statusCode)

			tracing.AddSpanAttributes(ctx,
				attribute.Int("http.response.status_code", wrapper.statusCode),
				attribute.Int64("http.response.size", wrapper.responseSize),
			)
			if wrapper.statusCode >= 400 {
				tracing.SetSpanStatus(ctx, codes.Error, fmt.Sprintf("HTTP %d", wrapper.statusCode))
			} else {
				tracing.SetSpanStatus(ctx, codes.Ok, "")
			}

			metrics.RecordTimer("http_request_duration", duration, map[string]string{
				"method":   r.Method,
				"endpoint": r.URL.Path,
			}, "HTTP request duration")
			metrics.IncrementCounter("http_responses_total", map[string]string{
				"method":      r.Method,
				"endpoint":    r.URL.Path,
				"status_code": status,
			}, "HTTP responses by status code")

			logLevel := logrus.InfoLevel
			if wrapper.statusCode >= 400 && wrapper.statusCode < 500 {
				logLevel = logrus.WarnLevel
			} else if wrapper.statusCode >= 500 {
				logLevel = logrus.ErrorLevel
			}

			logger.WithFields(logrus.Fields{
				constants.LogFieldRequestID:  requestID,
				constants.LogFieldTraceID:    traceID,
				constants.LogFieldMethod:     r.Method,
				constants.LogFieldPath:       r.URL.Path,
				constants.LogFieldStatusCode: wrapper.statusCode,
				constants.LogFieldDuration:   duration.Milliseconds(),
				constants.LogFieldRemoteIP:   clientIP,
				constants.LogFieldSize:       wrapper.responseSize,
			}).Log(logLevel, "HTTP request completed")
		})
	}
}

// responseWrapper captures response metrics
type responseWrapper struct {
	http.ResponseWriter
	statusCode   int
	responseSize int64
	wroteHeader  bool
}

func (rw *responseWrapper) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWrapper) Write(data []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(data)
	rw.responseSize += int64(n)
	return n, err
}
