package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapiMW "github.com/oapi-codegen/nethttp-middleware"
)

func validationMiddleware(doc *openapi3.T, skip []string) Middleware {
	skip = cloneStrings(skip)

	// Servers are cleared so validation does not depend on the deployment
	// host.
	doc.Servers = nil
	validator := oapiMW.OapiRequestValidatorWithOptions(doc, &oapiMW.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
	})

	return func(next http.Handler) http.Handler {
		validated := validator(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, skip) {
				next.ServeHTTP(w, r)
				return
			}
			validated.ServeHTTP(w, r)
		})
	}
}

func loggingMiddleware(logger *slog.Logger, quiet []string, hide []string) Middleware {
	quiet = cloneStrings(quiet)
	hide = cloneStrings(hide)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(quiet, r.URL.Path) {
				attrs := []any{
					"path", r.URL.Path,
					"method", r.Method,
					"header", redactHeaders(r.Header, hide),
				}
				if r.ContentLength > 0 {
					attrs = append(attrs, "contentLength", r.ContentLength)
				}
				logger.DebugContext(r.Context(), "request", attrs...)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(cfg CORSConfig) Middleware {
	origins := cloneStrings(cfg.Origins)
	methods := strings.Join(cfg.Methods, ",")
	headers := strings.Join(cfg.Headers, ",")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if slices.Contains(origins, "*") || slices.Contains(origins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.WriteHeader(http.StatusOK)
		})
	}
}

func timeoutMiddleware(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Timeout")
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// redactHeaders returns a copy of src with every hidden header replaced by
// its total value length.
func redactHeaders(src http.Header, hide []string) http.Header {
	headers := src.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	for _, name := range hide {
		key := http.CanonicalHeaderKey(name)
		values, ok := headers[key]
		if !ok {
			continue
		}
		size := 0
		for _, v := range values {
			size += len(v)
		}
		headers[key] = []string{fmt.Sprintf("[REDACTED - %d bytes]", size)}
	}
	return headers
}
