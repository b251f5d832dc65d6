// Package responder is the standard failure path of the HTTP surface. It
// renders RFC 9457 problem documents tagged with a ULID trace id, logs every
// failure at the level configured for its status, and writes successful JSON
// or pre-rendered bodies.
package responder

import (
	"log/slog"
	"net/http"
)

const (
	jsonContentType    = "application/json"
	problemContentType = "application/problem+json"
	statusDocBaseURL   = "https://httpstatuses.io"
)

// ErrorClassifierFunc maps an error to an HTTP status. Returning false leaves
// the error to the generic 500 handler.
type ErrorClassifierFunc func(err error) (status int, handled bool)

// Option configures a Responder.
type Option func(*Responder)

// StatusMetadata customises how a status code is logged and titled.
type StatusMetadata struct {
	TypeURI  string
	Title    string
	LogLevel slog.Level
	LogMsg   string
}

// Responder writes JSON responses and problem documents.
type Responder struct {
	log             *slog.Logger
	statusMetadata  map[int]StatusMetadata
	errorClassifier ErrorClassifierFunc
}

// NewResponder returns a Responder logging through slog.Default.
func NewResponder(opts ...Option) *Responder {
	r := &Responder{
		log: slog.Default(),
		statusMetadata: map[int]StatusMetadata{
			http.StatusInternalServerError: {LogLevel: slog.LevelError},
			http.StatusServiceUnavailable:  {LogLevel: slog.LevelWarn},
			http.StatusNotFound:            {LogLevel: slog.LevelInfo},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithLogger injects the logger used for failure records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithErrorClassifier installs the classifier used by HandleErrors.
func WithErrorClassifier(classifier ErrorClassifierFunc) Option {
	return func(r *Responder) {
		r.errorClassifier = classifier
	}
}

// WithStatusMetadata overrides the metadata of one status code. Empty fields
// fall back to the defaults derived from the status text.
func WithStatusMetadata(status int, meta StatusMetadata) Option {
	return func(r *Responder) {
		r.statusMetadata[status] = meta
	}
}

// Logger returns the logger used by the responder.
func (r *Responder) Logger() *slog.Logger {
	if r == nil || r.log == nil {
		return slog.Default()
	}
	return r.log
}
