package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the state of a circuit breaker
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config controls when a breaker opens and how it probes for recovery
type Config struct {
	// MaxFailures consecutive failures open a closed breaker.
	MaxFailures uint32 `json:"max_failures"`
	// OpenTimeout is how long an open breaker rejects calls before probing.
	OpenTimeout time.Duration `json:"open_timeout"`
	// HalfOpenMaxCalls successful probes close the breaker again.
	HalfOpenMaxCalls uint32 `json:"half_open_max_calls"`
}

// DefaultConfig returns the thresholds used for webhook event handlers
func DefaultConfig() Config {
	return Config{
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker stops calling a failing function until it has had time to
// recover. The zero value is not usable; use New.
type CircuitBreaker struct {
	name   string
	config Config
	logger *logrus.Logger
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failures      uint32
	openedAt      time.Time
	halfOpenCalls uint32
	halfOpenOK    uint32

	requests  uint64
	successes uint64
	rejected  uint64
	lastError time.Time
}

// New creates a breaker; a nil logger discards output and zero config values
// take their defaults.
func New(name string, config Config, logger *logrus.Logger) *CircuitBreaker {
	defaults := DefaultConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = defaults.MaxFailures
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.HalfOpenMaxCalls == 0 {
		config.HalfOpenMaxCalls = defaults.HalfOpenMaxCalls
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		logger: logger,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Name returns the breaker's name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute calls fn unless the breaker is open. A rejected call returns an
// *OpenError without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.acquire(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advance()
	switch cb.state {
	case StateOpen:
		cb.rejected++
		return &OpenError{Name: cb.name, State: cb.state, RetryAfter: cb.config.OpenTimeout - cb.now().Sub(cb.openedAt)}
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			cb.rejected++
			return &OpenError{Name: cb.name, State: cb.state}
		}
		cb.halfOpenCalls++
	}
	cb.requests++
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastError = cb.now()
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.config.MaxFailures {
				cb.trip()
			}
		case StateHalfOpen:
			cb.trip()
		}
		return
	}

	cb.successes++
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.halfOpenOK++
		if cb.halfOpenOK >= cb.config.HalfOpenMaxCalls {
			cb.reset()
			cb.logger.WithFields(logrus.Fields{
				"circuit_breaker": cb.name,
				"state":           StateClosed.String(),
			}).Info("Circuit breaker closed after successful recovery")
		}
	}
}

// advance moves an open breaker to half-open once OpenTimeout has elapsed.
// Callers hold cb.mu.
func (cb *CircuitBreaker) advance() {
	if cb.state != StateOpen || cb.now().Sub(cb.openedAt) < cb.config.OpenTimeout {
		return
	}
	cb.state = StateHalfOpen
	cb.halfOpenCalls = 0
	cb.halfOpenOK = 0
	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"state":           StateHalfOpen.String(),
	}).Info("Circuit breaker transitioned to half-open")
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"failures":        cb.failures,
		"state":           StateOpen.String(),
	}).Warn("Circuit breaker opened due to failures")
}

func (cb *CircuitBreaker) reset() {
	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenCalls = 0
	cb.halfOpenOK = 0
}

// State returns the current state, applying any pending open to half-open
// transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advance()
	return cb.state
}

// Stats returns a snapshot of the breaker's counters
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advance()

	return Stats{
		Name:            cb.name,
		State:           cb.state,
		Failures:        cb.failures,
		Requests:        cb.requests,
		Successes:       cb.successes,
		Rejected:        cb.rejected,
		LastFailureTime: cb.lastError,
	}
}

// Stats represents circuit breaker statistics
type Stats struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	Failures        uint32    `json:"consecutive_failures"`
	Requests        uint64    `json:"requests"`
	Successes       uint64    `json:"successes"`
	Rejected        uint64    `json:"rejected"`
	LastFailureTime time.Time `json:"last_failure_time"`
}

// OpenError is returned by Execute when the breaker rejects a call
type OpenError struct {
	Name       string
	State      State
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker '%s' is %s", e.Name, e.State)
}

// IsOpenError reports whether err, or any error it wraps, is an *OpenError
func IsOpenError(err error) bool {
	var openErr *OpenError
	return errors.As(err, &openErr)
}
