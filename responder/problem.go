package responder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ProblemDetails is an RFC 9457 problem document.
type ProblemDetails struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (r *Responder) metadataFor(status int) StatusMetadata {
	meta := r.statusMetadata[status]
	if meta.LogLevel == 0 && status >= http.StatusInternalServerError {
		meta.LogLevel = slog.LevelError
	}
	if meta.Title == "" {
		meta.Title = http.StatusText(status)
	}
	if meta.LogMsg == "" {
		meta.LogMsg = meta.Title
	}
	if meta.TypeURI == "" {
		meta.TypeURI = fmt.Sprintf("%s/%d", statusDocBaseURL, status)
	}
	return meta
}

func newProblem(req *http.Request, status int, err error, meta StatusMetadata) ProblemDetails {
	return ProblemDetails{
		Type:      meta.TypeURI,
		Title:     meta.Title,
		Status:    status,
		Detail:    err.Error(),
		Instance:  requestInstance(req),
		TraceID:   newTraceID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (r *Responder) logProblem(req *http.Request, meta StatusMetadata, problem ProblemDetails, err error, msgs []string) {
	logger := r.Logger().With("error", err.Error(), "traceId", problem.TraceID, "status", problem.Status)
	if problem.Instance != "" {
		logger = logger.With("instance", problem.Instance)
	}
	if len(msgs) > 0 {
		logger = logger.With("logMessages", msgs)
	}
	logger.Log(requestContext(req), meta.LogLevel, meta.LogMsg)
}

func requestInstance(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.RequestURI()
}

func requestContext(req *http.Request) context.Context {
	if req == nil {
		return context.Background()
	}
	return req.Context()
}
