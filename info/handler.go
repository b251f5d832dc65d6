package info

import (
	"html/template"
	"strings"
	"time"

	"github.com/drblury/specweaver/probe"
	"github.com/drblury/specweaver/responder"
)

const defaultProbeTimeout = 2 * time.Second

// InfoProvider returns the payload of the version endpoint.
type InfoProvider func() any

// Option configures a Handler.
type Option func(*Handler)

// Handler serves the operational endpoints.
type Handler struct {
	*responder.Responder
	infoProvider    InfoProvider
	title           string
	specURL         string
	viewer          *template.Template
	probeTimeout    time.Duration
	livenessChecks  []probe.Func
	readinessChecks []probe.Func
}

// NewHandler returns a Handler with a Stoplight viewer pointed at the default
// document path.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		Responder:    responder.NewResponder(),
		infoProvider: func() any { return map[string]string{} },
		title:        "API Reference",
		specURL:      "/swagger/v1/swagger.json",
		viewer:       viewerTemplates[ViewerStoplight],
		probeTimeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithResponder replaces the responder used for JSON and problem responses.
func WithResponder(r *responder.Responder) Option {
	return func(h *Handler) {
		if r != nil {
			h.Responder = r
		}
	}
}

// WithInfoProvider sets the version endpoint payload source.
func WithInfoProvider(provider InfoProvider) Option {
	return func(h *Handler) {
		if provider != nil {
			h.infoProvider = provider
		}
	}
}

// WithSpecURL points the viewer at the served document.
func WithSpecURL(url string) Option {
	return func(h *Handler) {
		if url != "" {
			h.specURL = url
		}
	}
}

// WithTitle sets the viewer page title.
func WithTitle(title string) Option {
	return func(h *Handler) {
		if title != "" {
			h.title = title
		}
	}
}

// WithViewer selects a built-in viewer. Unknown values keep the current one.
func WithViewer(viewer Viewer) Option {
	return func(h *Handler) {
		if tmpl, ok := viewerTemplates[Viewer(strings.ToLower(string(viewer)))]; ok {
			h.viewer = tmpl
		}
	}
}

// WithViewerTemplate installs a custom viewer. The template receives .Title
// and .SpecURL.
func WithViewerTemplate(tmpl *template.Template) Option {
	return func(h *Handler) {
		if tmpl != nil {
			h.viewer = tmpl
		}
	}
}

// WithProbeTimeout bounds the time all checks of one probe request may take.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.probeTimeout = timeout
		}
	}
}

// WithLivenessChecks sets the checks run by GetHealthz.
func WithLivenessChecks(checks ...probe.Func) Option {
	return func(h *Handler) {
		h.livenessChecks = compactChecks(checks)
	}
}

// WithReadinessChecks sets the checks run by GetReadyz.
func WithReadinessChecks(checks ...probe.Func) Option {
	return func(h *Handler) {
		h.readinessChecks = compactChecks(checks)
	}
}
