package specserve

import (
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/specweaver/responder"
)

// Defaults applied by New to empty Config fields.
const (
	DefaultPath         = "/swagger/v1/swagger.json"
	DefaultDocumentName = "v1"
	DefaultContentType  = "application/json; charset=utf-8"
)

// Config selects the document served and where.
type Config struct {
	// Path is matched case-insensitively, ignoring one leading and one
	// trailing slash.
	Path         string
	DocumentName string
	// MountPath is subtracted from the request path base when computing the
	// base path of the advertised server URL.
	MountPath   string
	ContentType string
	// TrustForwardedHeaders honours X-Forwarded-Proto, X-Forwarded-Host and
	// X-Forwarded-Prefix when decorating documents.
	TrustForwardedHeaders bool
}

// PostProcessFunc decorates a freshly generated document with request
// metadata. It runs after the server URL has been set.
type PostProcessFunc func(meta RequestMetadata, doc *openapi3.T)

// ErrorHandlerFunc writes the response for a failed document lookup.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithPostProcess installs a hook run on every generated document.
func WithPostProcess(fn PostProcessFunc) Option {
	return func(i *Interceptor) {
		i.postProcess = fn
	}
}

// WithErrorHandler replaces the responder-backed failure path.
func WithErrorHandler(fn ErrorHandlerFunc) Option {
	return func(i *Interceptor) {
		if fn != nil {
			i.errorHandler = fn
		}
	}
}

// WithResponder sets the responder used for documents and failures.
func WithResponder(r *responder.Responder) Option {
	return func(i *Interceptor) {
		if r != nil {
			i.responder = r
		}
	}
}

// WithLogger sets the logger of the default responder.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.DocumentName == "" {
		c.DocumentName = DefaultDocumentName
	}
	if c.ContentType == "" {
		c.ContentType = DefaultContentType
	}
	return c
}
