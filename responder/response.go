package responder

import (
	"net/http"
	"strconv"

	"github.com/drblury/specweaver/jsonutil"
)

// HandleAPIError writes a problem document for status and logs it. A nil err
// writes nothing.
func (r *Responder) HandleAPIError(w http.ResponseWriter, req *http.Request, status int, err error, logMsg ...string) {
	if err == nil {
		return
	}

	meta := r.metadataFor(status)
	problem := newProblem(req, status, err, meta)
	r.logProblem(req, meta, problem, err, logMsg)
	r.writeJSON(w, status, problemContentType, problem)
}

// HandleInternalServerError reports err with HTTP 500.
func (r *Responder) HandleInternalServerError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusInternalServerError, err, logMsg...)
}

// HandleServiceUnavailableError reports err with HTTP 503.
func (r *Responder) HandleServiceUnavailableError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusServiceUnavailable, err, logMsg...)
}

// HandleErrors classifies err and writes the matching problem document,
// falling back to HTTP 500.
func (r *Responder) HandleErrors(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	if err == nil {
		return
	}

	if r.errorClassifier != nil {
		if status, handled := r.errorClassifier(err); handled {
			r.HandleAPIError(w, req, status, err, logMsg...)
			return
		}
	}
	r.HandleInternalServerError(w, req, err, logMsg...)
}

// RespondWithJSON encodes v and writes it with status.
func (r *Responder) RespondWithJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	r.writeJSON(w, status, jsonContentType, v)
}

// RespondWithBody writes an already encoded body verbatim.
func (r *Responder) RespondWithBody(w http.ResponseWriter, req *http.Request, status int, contentType string, body []byte) {
	if w == nil {
		return
	}
	if contentType == "" {
		contentType = jsonContentType
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	r.write(w, status, contentType, body)
}

func (r *Responder) writeJSON(w http.ResponseWriter, status int, contentType string, payload any) {
	if w == nil {
		return
	}

	body, err := jsonutil.Marshal(payload)
	if err != nil {
		r.Logger().Error("failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	body = append(body, '\n')
	r.write(w, status, contentType, body)
}

func (r *Responder) write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		r.Logger().Debug("failed to write response", "error", err)
	}
}
