package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"connectrpc.com/connect"

	"poassistant/internal/gateway/export"
	"poassistant/internal/util/jsonutil"
)

// exportFiles maps download names to formats.
var exportFiles = map[string]export.Format{
	"stories.csv":   export.FormatCSV,
	"stories.xlsx":  export.FormatXLSX,
	"stories.html":  export.FormatHTML,
	"stories.md":    export.FormatMarkdown,
	"prototype.png": export.FormatPNG,
}

// HandleExport serves GET /export/{file}?session_id=|project_id= as an attachment.
func (s *Service) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFiles[r.PathValue("file")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	sessionID := strings.TrimSpace(q.Get("session_id"))
	projectID := strings.TrimSpace(q.Get("project_id"))
	if sessionID == "" && projectID == "" {
		http.Error(w, "session_id or project_id is required", http.StatusBadRequest)
		return
	}

	src, _, err := s.source(sessionID, projectID)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	file, err := s.exporter.Render(r.Context(), format, src)
	if err != nil {
		s.log.WithError(err).WithField("format", string(format)).Warn("export failed")
		writeHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	_, _ = w.Write(file.Content)
}

// HandleHealth reports liveness together with the number of live sessions.
func (s *Service) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, struct {
		OK       bool `json:"ok"`
		Sessions int  `json:"sessions"`
	}{OK: true, Sessions: s.sessions.Len()})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func writeHTTPError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ce *connect.Error
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		status = http.StatusConflict
	case errors.As(err, &ce):
		switch ce.Code() {
		case connect.CodeNotFound:
			status = http.StatusNotFound
		case connect.CodeInvalidArgument:
			status = http.StatusBadRequest
		}
		err = errors.New(ce.Message())
	}
	http.Error(w, err.Error(), status)
}
