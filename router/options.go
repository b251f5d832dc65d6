package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Option configures New.
type Option func(*options)

type options struct {
	config       Config
	logger       *slog.Logger
	swagger      *openapi3.T
	interceptors []Middleware
	prepend      []Middleware
	append       []Middleware
	override     []Middleware

	validate bool
	cors     bool
	timeout  bool
	logging  bool
}

func defaultOptions() *options {
	return &options{
		config:   Config{Timeout: 30 * time.Second},
		logger:   slog.Default(),
		validate: true,
		cors:     true,
		timeout:  true,
		logging:  true,
	}
}

// chain returns the middlewares outermost first.
func (o *options) chain() []Middleware {
	if len(o.override) > 0 {
		return append([]Middleware(nil), o.override...)
	}

	chain := make([]Middleware, 0, len(o.interceptors)+len(o.prepend)+len(o.append)+4)
	// CORS wraps the interceptors so served documents carry the headers too.
	if o.cors && len(o.config.CORS.Origins) > 0 {
		chain = append(chain, corsMiddleware(o.config.CORS))
	}
	chain = append(chain, o.interceptors...)
	chain = append(chain, o.prepend...)

	if o.validate && o.swagger != nil {
		chain = append(chain, validationMiddleware(o.swagger, o.config.SkipValidation))
	}
	if o.timeout && o.config.Timeout > 0 {
		chain = append(chain, timeoutMiddleware(o.config.Timeout))
	}
	if o.logging && o.logger != nil {
		chain = append(chain, loggingMiddleware(o.logger, o.config.QuietRoutes, o.config.HideHeaders))
	}

	return append(chain, o.append...)
}

// WithConfig replaces the pipeline configuration.
func WithConfig(cfg Config) Option {
	cfg = cfg.clone()
	return func(o *options) {
		o.config = cfg
	}
}

// WithConfigMutator edits the configuration after defaults are applied.
func WithConfigMutator(mutator func(*Config)) Option {
	return func(o *options) {
		if mutator != nil {
			mutator(&o.config)
		}
	}
}

// WithLogger sets the logger of the logging stage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSwagger enables request validation against doc. The servers list of
// doc is cleared so that requests are not matched against server URLs.
func WithSwagger(doc *openapi3.T) Option {
	return func(o *options) {
		o.swagger = doc
	}
}

// WithInterceptors installs request interceptors ahead of every stage except
// CORS. A document interceptor belongs here.
func WithInterceptors(interceptors ...Middleware) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithMiddlewares adds middlewares after the interceptors and before the
// default stages.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.prepend = append(o.prepend, middlewares...)
	}
}

// WithTrailingMiddlewares adds middlewares after the default stages.
func WithTrailingMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.append = append(o.append, middlewares...)
	}
}

// WithMiddlewareChain replaces the whole chain, interceptors included.
func WithMiddlewareChain(middlewares ...Middleware) Option {
	chain := append([]Middleware(nil), middlewares...)
	return func(o *options) {
		o.override = chain
	}
}

// WithoutOpenAPIValidation disables request validation.
func WithoutOpenAPIValidation() Option {
	return func(o *options) { o.validate = false }
}

// WithoutCORSMiddleware disables the CORS stage.
func WithoutCORSMiddleware() Option {
	return func(o *options) { o.cors = false }
}

// WithoutTimeoutMiddleware disables the timeout stage.
func WithoutTimeoutMiddleware() Option {
	return func(o *options) { o.timeout = false }
}

// WithoutLoggingMiddleware disables the logging stage.
func WithoutLoggingMiddleware() Option {
	return func(o *options) { o.logging = false }
}
