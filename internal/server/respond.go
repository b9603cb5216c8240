package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iksnae/session-report/internal"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// statusFor maps an error to its HTTP status code
func statusFor(err error) int {
	var (
		verr     *internal.ValidationError
		nerr     *internal.NotFoundError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &nerr):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response for err and logs it once. action
// describes the failed operation, e.g. "store report".
func (s *Server) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)
	entry := s.log.WithField("request_id", requestID(r)).WithError(err)

	switch status {
	case http.StatusBadRequest:
		entry.Debug("Rejected request")
		var verr *internal.ValidationError
		errors.As(err, &verr)
		writeJSON(w, status, errorBody{Error: verr.Msg})
	case http.StatusNotFound:
		entry.Debug("Report not found")
		writeJSON(w, status, errorBody{Error: "Report not found"})
	case http.StatusRequestEntityTooLarge:
		entry.Warn("Request body too large")
		writeJSON(w, status, errorBody{Error: "Request body too large"})
	default:
		entry.Errorf("Failed to %s", action)
		writeJSON(w, status, errorBody{Error: "Failed to " + action, Details: err.Error()})
	}
}
