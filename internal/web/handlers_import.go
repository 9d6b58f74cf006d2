package web

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/logging"
	webmw "github.com/JonMunkholm/fieldnotes/internal/web/middleware"
)

// multipartOverhead is the room left above the file size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// submitResponse is returned when an import is accepted.
type submitResponse struct {
	JobID string `json:"jobId"`
}

// statusResponse is the public view of a job. Fields are filled according to
// State: progress while ongoing, counts once complete, the failure once
// failed. errorCount and reportUrl are present only when rows were rejected.
type statusResponse struct {
	JobID         string         `json:"jobId"`
	Kind          string         `json:"kind"`
	State         core.State     `json:"state"`
	Phase         core.Phase     `json:"phase,omitempty"`
	Progress      *core.Progress `json:"progress,omitempty"`
	InsertedCount *int           `json:"insertedCount,omitempty"`
	ErrorCount    *int           `json:"errorCount,omitempty"`
	ReportURL     string         `json:"reportUrl,omitempty"`
	ErrorType     string         `json:"errorType,omitempty"`
	Description   string         `json:"description,omitempty"`
}

func newStatusResponse(st core.JobStatus) statusResponse {
	resp := statusResponse{
		JobID: st.ID,
		Kind:  string(st.Kind),
		State: st.State(),
	}
	switch resp.State {
	case core.StateOngoing:
		progress := st.Progress
		resp.Phase = st.Phase
		resp.Progress = &progress
	case core.StateComplete:
		inserted := st.InsertedCount
		resp.InsertedCount = &inserted
		if st.ReportFile != "" {
			errorCount := st.ErrorCount
			resp.ErrorCount = &errorCount
			resp.ReportURL = "/api/imports/" + st.ID + "/report"
		}
	case core.StateFailed:
		if st.Failure != nil {
			resp.ErrorType = string(st.Failure.Type)
			resp.Description = st.Failure.Description
		}
	}
	return resp
}

// requestUser returns the user attached by the auth middleware.
func requestUser(r *http.Request) (domain.User, error) {
	user, ok := webmw.UserFromContext(r.Context())
	if !ok {
		return domain.User{}, errors.New("request has no authenticated user")
	}
	return user, nil
}

// handleSubmitImport stages the uploaded file and starts an import job.
func (s *Server) handleSubmitImport(w http.ResponseWriter, r *http.Request) {
	user, err := requestUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	kind := domain.EntityKind(chi.URLParam(r, "kind"))
	if _, ok := core.Get(kind); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownKind, kind))
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) {
			err = fmt.Errorf("%w: %v", errNoFile, err)
		}
		s.respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	jobID, err := s.service.Submit(r.Context(), kind, user, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("import accepted",
		"job_id", jobID,
		"kind", string(kind),
		"file", header.Filename,
		"size", header.Size,
	)
	w.Header().Set("Location", "/api/imports/"+jobID)
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID})
}

// handleImportStatus reports a job's state. Jobs the caller may not see are
// indistinguishable from unknown ones.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	user, err := requestUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	st, err := s.service.Status(chi.URLParam(r, "jobID"), user)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := newStatusResponse(st)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := statusFragment(resp).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render status fragment", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownloadReport serves a job's error report to a caller allowed to see
// the job.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	user, err := requestUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	jobID := chi.URLParam(r, "jobID")
	path, err := s.service.ReportPath(jobID, user)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="import-errors-%s%s"`, jobID, filepath.Ext(path)))
	http.ServeFile(w, r, path)
}

// handleListKinds lists the importable kinds and their columns.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Kinds())
}

// handleDownloadTemplate serves an empty import file for a kind.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityKind(chi.URLParam(r, "kind"))
	body, err := s.service.Template(kind)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.csv"`, kind))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.FromContext(r.Context()).Error("write template", "error", err)
	}
}
