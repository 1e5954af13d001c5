package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/privacy"
)

// PayloadLoggingConfig controls debug logging of inbound payloads
type PayloadLoggingConfig struct {
	Enabled          bool     `json:"enabled"`
	LogHeaders       bool     `json:"log_headers"`
	LogBody          bool     `json:"log_body"`
	MaxBodySize      int      `json:"max_body_size"`
	SensitiveHeaders []string `json:"sensitive_headers"`
	SkipPaths        []string `json:"skip_paths"`
}

// DefaultPayloadLoggingConfig returns sensible defaults
func DefaultPayloadLoggingConfig() PayloadLoggingConfig {
	return PayloadLoggingConfig{
		Enabled:     false,
		LogHeaders:  true,
		LogBody:     false,
		MaxBodySize: 4096,
		SensitiveHeaders: []string{
			"authorization", "x-api-key", "pinnacle-signature",
			"cookie", "set-cookie",
		},
		SkipPaths: []string{"/metrics", "/health"},
	}
}

// PayloadLoggingMiddleware logs request headers and the top-level members of
// JSON bodies at debug level. Phone numbers, message IDs and text are masked.
// The body is restored for the next handler.
func PayloadLoggingMiddleware(logger *logrus.Logger, config PayloadLoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range config.SkipPaths {
				if r.URL.Path == skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			fields := logrus.Fields{
				constants.LogFieldRequestID: errors.RequestIDFromContext(r.Context()),
				constants.LogFieldMethod:    r.Method,
				constants.LogFieldPath:      r.URL.Path,
				"content_length":            r.ContentLength,
			}

			if config.LogHeaders {
				headers := make(map[string]string, len(r.Header))
				for name, values := range r.Header {
					if isSensitiveHeader(name, config.SensitiveHeaders) {
						headers[name] = "***MASKED***"
					} else {
						headers[name] = strings.Join(values, ", ")
					}
				}
				fields["request_headers"] = headers
			}

			if config.LogBody && isJSON(r) && r.Body != nil {
				limit := int64(config.MaxBodySize)
				body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
				if err == nil {
					r.Body = struct {
						io.Reader
						io.Closer
					}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}

					if int64(len(body)) > limit {
						fields["request_body"] = "***TRUNCATED***"
					} else {
						fields["request_body"] = maskedMembers(body)
					}
				}
			}

			logger.WithFields(fields).Debug("Inbound payload")
			next.ServeHTTP(w, r)
		})
	}
}

// maskedMembers flattens the top-level members of a JSON object and masks the
// sensitive ones. Nested objects and arrays are reduced to their size.
func maskedMembers(body []byte) map[string]interface{} {
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return map[string]interface{}{"_raw_kind": root.Type.String()}
	}
	members := make(map[string]interface{})
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			members[key.String()] = value.String()
		case value.IsObject(), value.IsArray():
			members[key.String()] = "[" + strconv.Itoa(len(value.Raw)) + " bytes]"
		default:
			members[key.String()] = value.Raw
		}
		return true
	})
	return privacy.MaskSensitiveFields(members)
}

func isSensitiveHeader(headerName string, sensitiveHeaders []string) bool {
	for _, sensitive := range sensitiveHeaders {
		if strings.EqualFold(sensitive, headerName) {
			return true
		}
	}
	return false
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.Contains(ct, "json")
}
