// Package specweaver serves a generated OpenAPI document over HTTP without
// regenerating it on every request.
//
// A speccache.Cache keeps one rendered snapshot per document name and
// regenerates only when its version source reports a new token. A failed
// generation is replayed to every caller for a short time so that a broken
// document does not turn each request into a new generation attempt. The
// specserve.Interceptor answers requests for the configured document path
// from that cache and passes everything else to the next handler.
//
// # Packages
//
//   - speccache: versioned snapshot cache with failure replay and
//     single-flight generation.
//   - specserve: path-matching interceptor that decorates the document with
//     the caller's server URL when it is generated.
//   - generator, render, version: file-backed generator, JSON and YAML
//     renderers, and version sources including an fsnotify file watcher.
//   - router: host pipeline with interceptors, OpenAPI request validation,
//     CORS, timeouts, and request logging.
//   - responder: RFC 9457 problem responses with trace ids.
//   - info, probe: status, health, readiness, version, and docs endpoints.
//   - config: viper configuration for cmd/specweaver.
//
// # Quick Start
//
//	cache, err := speccache.New[uint64](&version.Counter{}, gen, render.JSON())
//	if err != nil {
//	    return err
//	}
//	interceptor, err := specserve.New(cache, specserve.Config{})
//	if err != nil {
//	    return err
//	}
//	mux := router.New(api, router.WithInterceptors(interceptor.Middleware))
//
// Call Bump on the counter whenever the routes behind gen change.
package specweaver
