package specserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/specweaver/responder"
	"github.com/drblury/specweaver/speccache"
)

// ErrMisconfigured is wrapped by New when the interceptor cannot work.
var ErrMisconfigured = errors.New("specserve: misconfigured")

// DocumentSource returns rendered documents. *speccache.Cache satisfies it.
type DocumentSource interface {
	RenderedDocument(ctx context.Context, name string, postProcess speccache.PostProcessFunc) ([]byte, error)
}

// Interceptor serves one document on one path.
type Interceptor struct {
	docs         DocumentSource
	cfg          Config
	path         string
	postProcess  PostProcessFunc
	errorHandler ErrorHandlerFunc
	responder    *responder.Responder
	logger       *slog.Logger
}

// New validates cfg and returns an Interceptor reading from docs.
func New(docs DocumentSource, cfg Config, opts ...Option) (*Interceptor, error) {
	if docs == nil {
		return nil, fmt.Errorf("%w: document source is required", ErrMisconfigured)
	}

	cfg = cfg.withDefaults()
	path := normalizePath(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("%w: path %q does not name a document", ErrMisconfigured, cfg.Path)
	}

	i := &Interceptor{
		docs:   docs,
		cfg:    cfg,
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	if i.responder == nil {
		i.responder = responder.NewResponder(responder.WithLogger(i.logger))
	}
	if i.errorHandler == nil {
		i.errorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			i.responder.HandleErrors(w, r, err, "failed to serve api document")
		}
	}
	return i, nil
}

// Config returns the effective configuration.
func (i *Interceptor) Config() Config {
	return i.cfg
}

// Middleware serves matching requests and forwards the rest to next.
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Matches(r) {
			next.ServeHTTP(w, r)
			return
		}
		i.serve(w, r)
	})
}

// ServeHTTP serves the document when the path matches and 404 otherwise.
func (i *Interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	i.Middleware(http.NotFoundHandler()).ServeHTTP(w, r)
}

// Matches reports whether r targets the configured document path.
func (i *Interceptor) Matches(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}
	return strings.EqualFold(normalizePath(r.URL.Path), i.path)
}

func (i *Interceptor) serve(w http.ResponseWriter, r *http.Request) {
	meta := metadataFrom(r, i.cfg.MountPath, i.cfg.TrustForwardedHeaders)

	text, err := i.docs.RenderedDocument(r.Context(), i.cfg.DocumentName, i.decorate(meta))
	if err != nil {
		i.errorHandler(w, r, err)
		return
	}
	i.responder.RespondWithBody(w, r, http.StatusOK, i.cfg.ContentType, text)
}

func (i *Interceptor) decorate(meta RequestMetadata) speccache.PostProcessFunc {
	return func(doc *openapi3.T) {
		doc.Servers = openapi3.Servers{{URL: meta.ServerURL()}}
		if i.postProcess != nil {
			i.postProcess(meta, doc)
		}
	}
}

// normalizePath trims one leading and one trailing slash.
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "/")
	return strings.TrimSuffix(path, "/")
}
