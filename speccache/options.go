package speccache

import (
	"log/slog"
	"time"
)

// DefaultExceptionTTL is how long a generation failure is replayed before the
// next request may retry.
const DefaultExceptionTTL = 10 * time.Second

// Option configures a Cache via the functional options pattern.
type Option func(*options)

type options struct {
	exceptionTTL time.Duration
	now          func() time.Time
	logger       *slog.Logger
	metrics      *Metrics
	singleFlight bool
}

func defaultOptions() *options {
	return &options{
		exceptionTTL: DefaultExceptionTTL,
		now:          time.Now,
		logger:       slog.Default(),
		singleFlight: true,
	}
}

// WithExceptionTTL sets how long a captured failure is replayed. Zero or a
// negative value disables failure caching.
func WithExceptionTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl < 0 {
			ttl = 0
		}
		o.exceptionTTL = ttl
	}
}

// WithClock replaces the wall clock used to stamp and expire failures.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for generation events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records lookups and generations on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithoutSingleFlight lets every concurrent miss run its own generation.
func WithoutSingleFlight() Option {
	return func(o *options) {
		o.singleFlight = false
	}
}
