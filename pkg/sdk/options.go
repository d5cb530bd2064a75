package spendgate

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dialTimeout time.Duration
	timeout     time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithDialTimeout bounds connection establishment. Default: 5s.
func WithDialTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.dialTimeout = d
	})
}

// WithTimeout bounds the whole exchange after connecting. A STATUS waits on two
// upstream billing calls, so this should exceed twice the breaker's upstream timeout.
// Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
