package info

import (
	"bytes"
	"net/http"
	"strings"
)

// Mount registers the endpoints on mux under prefix.
func (h *Handler) Mount(mux *http.ServeMux, prefix string) {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	mux.HandleFunc("GET "+prefix+"/status", h.GetStatus)
	mux.HandleFunc("GET "+prefix+"/healthz", h.GetHealthz)
	mux.HandleFunc("GET "+prefix+"/readyz", h.GetReadyz)
	mux.HandleFunc("GET "+prefix+"/version", h.GetVersion)
	mux.HandleFunc("GET "+prefix+"/docs", h.GetDocs)
}

// GetStatus reports that the process is serving.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondProbe(w, r, "HEALTHY")
}

// GetHealthz runs the liveness checks.
func (h *Handler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context(), h.livenessChecks); err != nil {
		h.HandleServiceUnavailableError(w, r, err, "liveness probe failed")
		return
	}
	h.respondProbe(w, r, "ok")
}

// GetReadyz runs the readiness checks.
func (h *Handler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context(), h.readinessChecks); err != nil {
		h.HandleServiceUnavailableError(w, r, err, "readiness probe failed")
		return
	}
	h.respondProbe(w, r, "ready")
}

// GetVersion writes the InfoProvider payload.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	payload := h.infoProvider()
	if payload == nil {
		payload = map[string]string{}
	}
	h.RespondWithJSON(w, r, http.StatusOK, payload)
}

// GetDocs renders the HTML viewer for the served document.
func (h *Handler) GetDocs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.viewer.Execute(&buf, viewerData{Title: h.title, SpecURL: h.specURL}); err != nil {
		h.HandleInternalServerError(w, r, err, "failed to render docs viewer")
		return
	}
	h.RespondWithBody(w, r, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
