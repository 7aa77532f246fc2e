// Package server exposes the extraction pipeline over HTTP: upload a PDF,
// get the structured record back, list past analyses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caredocs-labs/medextract/constants"
	"github.com/caredocs-labs/medextract/internal/history"
	"github.com/caredocs-labs/medextract/internal/llm"
	"github.com/caredocs-labs/medextract/internal/ocr"
	"github.com/caredocs-labs/medextract/internal/pipeline"
)

// Runner is the pipeline surface the server depends on.
type Runner interface {
	Run(ctx context.Context, path string) (*pipeline.Result, error)
}

// HistoryReader lists stored analyses. Nil disables the history endpoints.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (*pipeline.Result, error)
}

type Config struct {
	MaxUploadMB int64
	// UploadDir holds uploaded files while they are analyzed. Empty means the
	// system temp dir.
	UploadDir string
}

type Service struct {
	cfg     Config
	runner  Runner
	history HistoryReader
	logger  *slog.Logger
	inspect func(path string) (ocr.PDFInfo, error)
}

func NewService(cfg Config, runner Runner, hist HistoryReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 50
	}
	return &Service{cfg: cfg, runner: runner, history: hist, logger: logger, inspect: ocr.InspectPDF}
}

func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form field 'file'")
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if !constants.IsAllowedExt(ext) {
		writeError(w, http.StatusUnsupportedMediaType, "only PDF uploads are supported")
		return
	}

	path, err := s.saveUpload(file, ext)
	if err != nil {
		s.logger.Error("server.upload_save_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	defer os.Remove(path)

	info, err := s.inspect(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "upload is not a readable PDF")
		return
	}
	s.logger.Info("server.upload_accepted",
		"file", header.Filename,
		"pages", info.Pages,
		"has_images", info.HasImages)

	res, err := s.runner.Run(r.Context(), path)
	if err != nil {
		s.logger.Error("server.analyze_failed", "file", header.Filename, "error", err)
		// The pipeline still produces a well-formed empty record on failure;
		// hand it to the caller alongside the diagnostic.
		writeJSON(w, analyzeStatus(err), analysisError{Error: err.Error(), Result: res})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type analysisError struct {
	Error  string           `json:"error"`
	Result *pipeline.Result `json:"result,omitempty"`
}

func (s *Service) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store is not configured")
		return
	}
	entries, err := s.history.Recent(r.Context(), 50)
	if err != nil {
		s.logger.Error("server.history_list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list analyses")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": entries})
}

func (s *Service) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	res, err := s.history.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) saveUpload(src io.Reader, ext string) (string, error) {
	dir := s.cfg.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "upload-*."+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// analyzeStatus maps pipeline failures to HTTP codes: unusable input is the
// client's problem, everything else is upstream or ours.
func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoUsableText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrNoChunksSucceeded):
		return http.StatusBadGateway
	}
	var xerr *llm.ExtractionError
	if errors.As(err, &xerr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
