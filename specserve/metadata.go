package specserve

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestMetadata is the connection information used to decorate a document.
type RequestMetadata struct {
	Scheme string
	Host   string
	// PathBase is the part of the request path consumed before this handler,
	// e.g. by http.StripPrefix or a proxy announcing X-Forwarded-Prefix.
	PathBase string
	// BasePath is PathBase without the interceptor's own mount path.
	BasePath string
}

// ServerURL returns the server URL advertised in decorated documents.
func (m RequestMetadata) ServerURL() string {
	return m.Scheme + "://" + m.Host + m.BasePath
}

func metadataFrom(r *http.Request, mountPath string, trustForwarded bool) RequestMetadata {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	pathBase := strippedPrefix(r)

	if trustForwarded {
		if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
			scheme = strings.ToLower(proto)
		}
		if fwdHost := firstHeaderValue(r, "X-Forwarded-Host"); fwdHost != "" {
			host = fwdHost
		}
		if prefix := firstHeaderValue(r, "X-Forwarded-Prefix"); prefix != "" {
			pathBase = "/" + strings.Trim(prefix, "/") + pathBase
		}
	}

	pathBase = strings.TrimSuffix(pathBase, "/")
	return RequestMetadata{
		Scheme:   scheme,
		Host:     host,
		PathBase: pathBase,
		BasePath: subtractMountPath(pathBase, mountPath),
	}
}

// strippedPrefix recovers the prefix removed from r.URL.Path by upstream
// handlers by comparing it with the original request URI.
func strippedPrefix(r *http.Request) string {
	if r.RequestURI == "" || r.URL == nil {
		return ""
	}
	original, err := url.ParseRequestURI(r.RequestURI)
	if err != nil {
		return ""
	}
	full, current := original.Path, r.URL.Path
	if len(full) <= len(current) || !strings.HasSuffix(full, current) {
		return ""
	}
	prefix := full[:len(full)-len(current)]
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func subtractMountPath(pathBase, mountPath string) string {
	mount := strings.Trim(mountPath, "/")
	if mount == "" {
		return pathBase
	}
	suffix := "/" + mount
	if len(pathBase) >= len(suffix) && strings.EqualFold(pathBase[len(pathBase)-len(suffix):], suffix) {
		return pathBase[:len(pathBase)-len(suffix)]
	}
	return pathBase
}

func firstHeaderValue(r *http.Request, name string) string {
	value := r.Header.Get(name)
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
