package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinnacle/internal/errors"
	"pinnacle/internal/metrics"
)

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger, &buf
}

func TestObservabilityMiddleware(t *testing.T) {
	metrics.GetRegistry().Reset()
	logger, logBuffer := bufferedLogger(logrus.DebugLevel)

	var seenRequestID string
	handler := ObservabilityMiddleware(logger, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = errors.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("test response"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "192.168.1.100:12345"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(seenRequestID, "req_"))
	assert.Equal(t, seenRequestID, w.Header().Get(RequestIDHeader))

	snap := metrics.GetAllMetrics()
	assert.Equal(t, float64(1), snap.Counters["http_requests_total_endpoint:/test_method:GET"].Value)
	assert.Equal(t, float64(1), snap.Counters["http_responses_total_endpoint:/test_method:GET_status_code:200"].Value)
	assert.Equal(t, float64(0), snap.Gauges["http_requests_active"].Value)
	assert.Equal(t, int64(1), snap.Timers["http_request_duration_endpoint:/test_method:GET"].Count)

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "HTTP request started")
	assert.Contains(t, logOutput, "HTTP request completed")
	assert.Contains(t, logOutput, seenRequestID)
	assert.Contains(t, logOutput, "192.168.1.100")
}

func TestObservabilityMiddleware_PropagatesRequestID(t *testing.T) {
	logger, _ := bufferedLogger(logrus.PanicLevel)

	var seen string
	handler := ObservabilityMiddleware(logger, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = errors.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/pinnacle", nil)
	req.Header.Set(RequestIDHeader, "req_upstream")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req_upstream", seen)
	assert.Equal(t, "req_upstream", w.Header().Get(RequestIDHeader))
}

func TestObservabilityMiddleware_ErrorStatusLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{status: http.StatusBadRequest, level: `"level":"warning"`},
		{status: http.StatusInternalServerError, level: `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logger, buf := bufferedLogger(logrus.InfoLevel)
			handler := ObservabilityMiddleware(logger, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

func TestObservabilityMiddleware_UntrustedProxyHeaders(t *testing.T) {
	logger, buf := bufferedLogger(logrus.DebugLevel)
	handler := ObservabilityMiddleware(logger, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/pinnacle", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "10.0.0.1")
	assert.NotContains(t, buf.String(), "203.0.113.5")
}

func TestResponseWrapper(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapper := &responseWrapper{ResponseWriter: rec, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusAccepted)
	wrapper.WriteHeader(http.StatusInternalServerError)
	n, err := wrapper.Write([]byte("hello"))

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusAccepted, wrapper.statusCode)
	assert.Equal(t, int64(5), wrapper.responseSize)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestObservabilityMiddleware_ConcurrentRequests(t *testing.T) {
	metrics.GetRegistry().Reset()
	logger, _ := bufferedLogger(logrus.PanicLevel)
	handler := ObservabilityMiddleware(logger, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/c", nil))
		}()
	}
	wg.Wait()

	snap := metrics.GetAllMetrics()
	assert.Equal(t, float64(20), snap.Counters["http_requests_total_endpoint:/c_method:GET"].Value)
	assert.Equal(t, float64(0), snap.Gauges["http_requests_active"].Value)
}

func TestPayloadLoggingMiddleware(t *testing.T) {
	logger, buf := bufferedLogger(logrus.DebugLevel)
	config := DefaultPayloadLoggingConfig()
	config.Enabled = true
	config.LogBody = true

	body := `{"type":"MESSAGE.RECEIVED","from":"+14155550111","messageId":"msg_0123456789abcdef","message":{"text":"secret"}}`

	var received string
	handler := PayloadLoggingMiddleware(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/pinnacle", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, body, received, "handler must see the full body")

	out := buf.String()
	assert.Contains(t, out, "Inbound payload")
	assert.Contains(t, out, "MESSAGE.RECEIVED")
	assert.Contains(t, out, "***MASKED***")
	assert.NotContains(t, out, "Bearer abc")
	assert.NotContains(t, out, "+14155550111")
	assert.NotContains(t, out, "secret")
}

func TestPayloadLoggingMiddleware_Disabled(t *testing.T) {
	logger, buf := bufferedLogger(logrus.DebugLevel)
	handler := PayloadLoggingMiddleware(logger, DefaultPayloadLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	assert.Empty(t, buf.String())
}

func TestPayloadLoggingMiddleware_TruncatesLargeBody(t *testing.T) {
	logger, buf := bufferedLogger(logrus.DebugLevel)
	config := DefaultPayloadLoggingConfig()
	config.Enabled = true
	config.LogBody = true
	config.MaxBodySize = 16

	body := `{"text":"` + strings.Repeat("x", 100) + `"}`
	var received string
	handler := PayloadLoggingMiddleware(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received = string(b)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body)))

	assert.Equal(t, body, received)
	assert.Contains(t, buf.String(), "***TRUNCATED***")
}

func TestIsSensitiveHeader(t *testing.T) {
	sensitive := []string{"authorization", "x-api-key"}
	assert.True(t, isSensitiveHeader("Authorization", sensitive))
	assert.True(t, isSensitiveHeader("X-API-KEY", sensitive))
	assert.False(t, isSensitiveHeader("Content-Type", sensitive))
}
