package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/middleware"
	"pinnacle/internal/security"
	"pinnacle/internal/tracing"
	"pinnacle/internal/validation"
)

const (
	// EnvironmentVar selects production checks when set to "production"
	EnvironmentVar = "PINNACLE_ENV"

	envWebhookAddr  = "PINNACLE_WEBHOOK_ADDR"
	envWebhookPath  = "PINNACLE_WEBHOOK_PATH"
	envLogLevel     = "LOG_LEVEL"
	envMaxBodyBytes = "PINNACLE_MAX_BODY_BYTES"
	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

	maxConfigFileBytes = 1 << 20
)

// Config is the webhook service configuration
type Config struct {
	Server         ServerConfig                    `json:"server"`
	Webhook        WebhookConfig                   `json:"webhook"`
	Tracing        tracing.TracingConfig           `json:"tracing"`
	PayloadLogging middleware.PayloadLoggingConfig `json:"payload_logging"`
	LogLevel       string                          `json:"log_level"`
}

// ServerConfig holds listener settings
type ServerConfig struct {
	Addr                 string `json:"addr"`
	ReadTimeoutSec       int    `json:"read_timeout_sec"`
	WriteTimeoutSec      int    `json:"write_timeout_sec"`
	IdleTimeoutSec       int    `json:"idle_timeout_sec"`
	GracefulShutdownSec  int    `json:"graceful_shutdown_sec"`
	TrustProxyHeaders    bool   `json:"trust_proxy_headers"`
	ConfigReloadInterval int    `json:"config_reload_interval_sec"`
}

// WebhookConfig holds webhook intake settings
type WebhookConfig struct {
	Path              string `json:"path"`
	MaxBodyBytes      int64  `json:"max_body_bytes"`
	HandlerTimeoutSec int    `json:"handler_timeout_sec"`
}

// Default returns a configuration populated from internal/constants
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                constants.DefaultWebhookAddr,
			ReadTimeoutSec:      constants.DefaultServerReadTimeoutSec,
			WriteTimeoutSec:     constants.DefaultServerWriteTimeoutSec,
			IdleTimeoutSec:      constants.DefaultServerIdleTimeoutSec,
			GracefulShutdownSec: constants.DefaultGracefulShutdownSec,
		},
		Webhook: WebhookConfig{
			Path:              constants.DefaultWebhookPath,
			MaxBodyBytes:      constants.DefaultMaxBodyBytes,
			HandlerTimeoutSec: constants.DefaultHandlerTimeoutSec,
		},
		Tracing:        tracing.DefaultTracingConfig(),
		PayloadLogging: middleware.DefaultPayloadLoggingConfig(),
		LogLevel:       constants.DefaultLogLevel,
	}
}

// LoadConfig reads the JSON file at path over the defaults, applies
// environment overrides, and validates the result. An empty path skips the
// file and uses defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		// Validate config file path to prevent directory traversal
		if err := security.ValidateReadableFile(path, maxConfigFileBytes); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "invalid config path").
				WithContext("path", path)
		}

		file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateReadableFile above
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMissingConfig, "failed to read config file").
				WithContext("path", path)
		}

		decoder := json.NewDecoder(bytes.NewReader(file))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(config); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to parse config file").
				WithContext("path", path)
		}
	}

	if err := applyEnvironmentOverrides(config); err != nil {
		return nil, err
	}
	applyDefaults(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	// Perform security validation after environment overrides
	if err := validateSecurity(config, IsProduction()); err != nil {
		return nil, err
	}

	return config, nil
}

// IsProduction reports whether PINNACLE_ENV selects production mode
func IsProduction() bool {
	return strings.EqualFold(os.Getenv(EnvironmentVar), "production")
}

// ParsedLogLevel returns the logrus level for LogLevel, falling back to info
func (c *Config) ParsedLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func applyEnvironmentOverrides(c *Config) error {
	if addr := os.Getenv(envWebhookAddr); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv(envWebhookPath); path != "" {
		c.Webhook.Path = path
	}
	if level := os.Getenv(envLogLevel); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if raw := os.Getenv(envMaxBodyBytes); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errors.NewConfigError(envMaxBodyBytes, fmt.Sprintf("not an integer: %q", raw))
		}
		c.Webhook.MaxBodyBytes = n
	}
	if endpoint := os.Getenv(envOTLPEndpoint); endpoint != "" {
		c.Tracing.OTLPEndpoint = endpoint
		c.Tracing.UseStdout = false
		c.Tracing.Enabled = true
	}
	if env := os.Getenv(EnvironmentVar); env != "" {
		c.Tracing.Environment = env
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Server.GracefulShutdownSec <= 0 {
		c.Server.GracefulShutdownSec = constants.DefaultGracefulShutdownSec
	}
	if c.Webhook.HandlerTimeoutSec <= 0 {
		c.Webhook.HandlerTimeoutSec = constants.DefaultHandlerTimeoutSec
	}
	if c.LogLevel == "" {
		c.LogLevel = constants.DefaultLogLevel
	}
}

func validate(c *Config) error {
	if c.Server.Addr == "" {
		return errors.NewConfigError("server.addr", "listen address is required")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return errors.NewConfigError("webhook.path", fmt.Sprintf("must start with '/', got %q", c.Webhook.Path))
	}
	if c.Webhook.MaxBodyBytes <= 0 || c.Webhook.MaxBodyBytes > constants.MaxBodyBytesLimit {
		return errors.NewConfigError("webhook.max_body_bytes",
			fmt.Sprintf("must be between 1 and %d, got %d", constants.MaxBodyBytesLimit, c.Webhook.MaxBodyBytes))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.NewConfigError("log_level", err.Error())
	}
	timeouts := []struct {
		key string
		sec int
	}{
		{"server.read_timeout_sec", c.Server.ReadTimeoutSec},
		{"server.write_timeout_sec", c.Server.WriteTimeoutSec},
		{"server.idle_timeout_sec", c.Server.IdleTimeoutSec},
		{"server.graceful_shutdown_sec", c.Server.GracefulShutdownSec},
		{"webhook.handler_timeout_sec", c.Webhook.HandlerTimeoutSec},
	}
	for _, t := range timeouts {
		if err := validation.ValidateTimeout(t.sec, t.key); err != nil {
			return errors.NewConfigError(t.key, err.Error())
		}
	}
	if c.Server.ConfigReloadInterval < 0 {
		return errors.NewConfigError("server.config_reload_interval_sec", "cannot be negative")
	}
	if err := c.Tracing.Validate(); err != nil {
		return errors.NewConfigError("tracing", err.Error())
	}
	return nil
}

// validateSecurity rejects settings that would leak message content or
// phone numbers into production logs.
func validateSecurity(c *Config, production bool) error {
	if !production {
		if c.PayloadLogging.Enabled && c.PayloadLogging.LogBody {
			fmt.Fprintf(os.Stderr, "WARNING: payload body logging is enabled. Message content is masked but payload structure is logged.\n")
		}
		return nil
	}

	if c.LogLevel == "debug" || c.LogLevel == "trace" {
		return errors.NewConfigError("log_level", "debug logging should not be used in production (security risk)")
	}
	if c.PayloadLogging.Enabled && c.PayloadLogging.LogBody {
		return errors.NewConfigError("payload_logging.log_body", "payload body logging should not be used in production (security risk)")
	}
	return nil
}
