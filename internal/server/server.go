// Package server is the HTTP boundary: it accepts uploads, enqueues jobs
// and serves job state and artifacts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/niiell/aiweb/internal/config"
	"github.com/niiell/aiweb/internal/queue"
)

// maxUploadBytes bounds the multipart memory buffer; larger files spill to
// temporary disk storage.
const maxUploadBytes = 64 << 20

// JobStore is the slice of the queue the server uses. *queue.Queue
// satisfies it.
type JobStore interface {
	Enqueue(ctx context.Context, data queue.JobData) (string, error)
	Get(ctx context.Context, id string) (*queue.Record, error)
}

// Server handles the upload/status/download surface.
type Server struct {
	store     JobStore
	uploadDir string
	log       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Server storing uploads under uploadDir.
func New(store JobStore, uploadDir string, opts ...Option) *Server {
	s := &Server{
		store:     store,
		uploadDir: uploadDir,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /job/{id}", s.handleJob)
	mux.HandleFunc("GET /download/{name}", s.handleDownload)
	return s.logRequests(mux)
}

// uploadResponse is the body returned for accepted uploads.
type uploadResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "malformed multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		httpError(w, http.StatusInternalServerError, "cannot create upload directory")
		return
	}

	// Timestamp plus UUID guarantees a unique stem per job.
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString(), sanitizeName(header.Filename))
	destPath := filepath.Join(s.uploadDir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	if _, err := io.Copy(dest, file); err != nil {
		_ = dest.Close()
		httpError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	if err := dest.Close(); err != nil {
		httpError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}

	data := queue.JobData{
		FilePath:     destPath,
		OriginalName: header.Filename,
	}
	// Absent form fields keep the worker's environment defaults; present
	// ones override per job.
	if v, ok := formValue(r, "mergeMode"); ok {
		mode := config.NormalizeMergeMode(v)
		data.MergeMode = &mode
	}
	if v, ok := formValue(r, "burnSubtitles"); ok {
		burn := config.Truthy(v)
		data.BurnSubtitles = &burn
	}
	if v, ok := formValue(r, "enhance"); ok {
		enhance := config.Truthy(v)
		data.Enhance = &enhance
	}
	if v, ok := formValue(r, "targetLang"); ok && v != "" {
		data.TargetLang = &v
	}

	id, err := s.store.Enqueue(r.Context(), data)
	if err != nil {
		s.log.Error("enqueue failed", "error", err)
		httpError(w, http.StatusInternalServerError, "cannot enqueue job")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{JobID: id, Status: "queued"})
}

// jobResponse mirrors the stored record for clients.
type jobResponse struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Data         queue.JobData `json:"data"`
	State        string        `json:"state"`
	Progress     int           `json:"progress"`
	Result       *queue.Result `json:"result"`
	FailedReason string        `json:"failedReason,omitempty"`
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			httpError(w, http.StatusNotFound, "job not found")
			return
		}
		s.log.Error("job lookup failed", "error", err)
		httpError(w, http.StatusInternalServerError, "cannot load job")
		return
	}

	writeJSON(w, http.StatusOK, jobResponse{
		ID:           rec.ID,
		Name:         rec.Name,
		Data:         rec.Data,
		State:        rec.State,
		Progress:     rec.Progress,
		Result:       rec.ReturnValue,
		FailedReason: rec.FailedReason,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	// Basename-stripping prevents path traversal out of the upload dir.
	name := filepath.Base(r.PathValue("name"))
	if name == "." || name == string(filepath.Separator) {
		httpError(w, http.StatusNotFound, "file not found")
		return
	}
	path := filepath.Join(s.uploadDir, name)
	if _, err := os.Stat(path); err != nil {
		httpError(w, http.StatusNotFound, "file not found")
		return
	}
	http.ServeFile(w, r, path)
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// formValue reports whether the field was present at all, so absent flags
// stay tri-state.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeName reduces a client-supplied filename to a safe basename.
func sanitizeName(name string) string {
	base := filepath.Base(name)
	base = unsafeNameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		return "upload"
	}
	return base
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
