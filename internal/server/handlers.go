package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/internal/export"
)

const missingFieldsMsg = "Missing required fields: sessionId and sessionData"

// submitRequest is the body of POST /api/report
type submitRequest struct {
	SessionID   json.RawMessage `json:"sessionId"`
	SessionData json.RawMessage `json:"sessionData"`
	RawJSONL    json.RawMessage `json:"rawJsonl"`
}

// decodeSubmit parses and validates a submission body. It returns the
// session id, session data, and the raw upload (nil when absent).
func decodeSubmit(body io.Reader) (string, json.RawMessage, *string, error) {
	var req submitRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, nil, err
		}
		return "", nil, nil, &internal.ValidationError{Msg: "Request body must be a JSON object"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, nil, err
		}
		return "", nil, nil, &internal.ValidationError{Msg: "Request body must be a JSON object"}
	}

	if internal.IsFalsyJSON(req.SessionID) || internal.IsFalsyJSON(req.SessionData) {
		return "", nil, nil, &internal.ValidationError{Msg: missingFieldsMsg}
	}

	sessionID, err := sessionIDText(req.SessionID)
	if err != nil {
		return "", nil, nil, err
	}

	var raw *string
	var text string
	if err := json.Unmarshal(req.RawJSONL, &text); err == nil && text != "" {
		raw = &text
	}

	return sessionID, req.SessionData, raw, nil
}

// sessionIDText accepts a JSON string or number
func sessionIDText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", &internal.ValidationError{Field: "sessionId", Msg: "sessionId must be a string or number"}
		}
		return internal.CleanSessionID(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", &internal.ValidationError{Field: "sessionId", Msg: "sessionId must be a string or number"}
	}
	return n.String(), nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, data, raw, err := decodeSubmit(r.Body)
	if err != nil {
		s.fail(w, r, "store report", err)
		return
	}

	id, err := s.store.Insert(r.Context(), sessionID, data, raw)
	if err != nil {
		s.fail(w, r, "store report", err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID(r),
		"report_id":  id,
		"session_id": sessionID,
		"raw_jsonl":  raw != nil,
	}).Info("Report received")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"reportId": id,
		"message":  "Report stored successfully",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, "fetch reports", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reports": reports,
	})
}

// reportID returns the path id, answering 404 for anything that is not a
// report id before the store is consulted
func (s *Server) reportID(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	id := r.PathValue("id")
	if !internal.ValidReportID(id) {
		s.fail(w, r, op, &internal.NotFoundError{ID: id})
		return "", false
	}
	return id, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r, "fetch report")
	if !ok {
		return
	}
	report, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "fetch report", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r, "delete report")
	if !ok {
		return
	}
	n, err := s.store.Delete(r.Context(), id)
	if err == nil && n == 0 {
		err = &internal.NotFoundError{ID: id}
	}
	if err != nil {
		s.fail(w, r, "delete report", err)
		return
	}

	s.log.WithFields(logrus.Fields{"request_id": requestID(r), "report_id": id}).Info("Report deleted")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Report deleted successfully",
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r, "download report")
	if !ok {
		return
	}
	report, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "download report", err)
		return
	}

	content, err := export.ReportJSONL(report)
	if err != nil {
		s.fail(w, r, "download report", err)
		return
	}

	w.Header().Set("Content-Type", "application/x-jsonlines")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DownloadFilename()))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, "fetch reports", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.pages.Index(buf, reports)
	})
}

func (s *Server) handleDetailPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		report *internal.Report
		err    error
	)
	if internal.ValidReportID(id) {
		report, err = s.store.Get(r.Context(), id)
	} else {
		err = &internal.NotFoundError{ID: id}
	}
	if internal.IsNotFound(err) {
		s.renderPage(w, r, http.StatusNotFound, func(buf *bytes.Buffer) error {
			return s.pages.NotFound(buf, id)
		})
		return
	}
	if err != nil {
		s.fail(w, r, "fetch report", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.pages.Detail(buf, report)
	})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !internal.ValidReportID(id) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if _, err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "delete report", err)
		return
	}
	s.log.WithFields(logrus.Fields{"request_id": requestID(r), "report_id": id}).Info("Report deleted from dashboard")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderPage buffers a page so template errors never produce a partial response
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.fail(w, r, "render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
