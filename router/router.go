package router

import "net/http"

// New returns a ServeMux that sends every request through the configured
// pipeline into handler.
func New(handler http.Handler, opts ...Option) *http.ServeMux {
	if handler == nil {
		panic("router: handler cannot be nil")
	}

	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/", Chain(handler, settings.chain()...))
	return mux
}

// Chain wraps handler so that middlewares[0] sees the request first. Nil
// entries are skipped.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			handler = middlewares[i](handler)
		}
	}
	return handler
}
