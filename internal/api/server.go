package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/internal/util"

	"go.uber.org/zap"
)

type DocumentStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Path(ctx context.Context, documentID string) (string, error)
}

// Answerer answers questions and owns the caches behind them.
type Answerer interface {
	Answer(ctx context.Context, documentID, question string) (string, error)
	Forget(documentID string)
	Reset(ctx context.Context) error
}

type AskLogger interface {
	Insert(ctx context.Context, rec models.AskRecord) error
	ListByDocument(ctx context.Context, documentID string, limit int) ([]models.AskRecord, error)
}

// IngestStarter kicks off background text extraction for stored documents.
type IngestStarter interface {
	StartIngest(ctx context.Context, documentID, path string) (string, error)
	StartBackfill(ctx context.Context) (string, error)
}

type Recorder interface {
	Ask(status string, d time.Duration)
	Upload(ok bool)
	Ingest(status string)
}

// Deps are the collaborators of the server. Docs and QA are required.
type Deps struct {
	Docs    DocumentStore
	QA      Answerer
	AskLog  AskLogger
	Ingest  IngestStarter
	Metrics Recorder
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

type Server struct {
	cfg  config.Config
	deps Deps
	log  *zap.Logger
}

func NewServer(cfg config.Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 * 1024 * 1024
	}
	return &Server{cfg: cfg, deps: deps, log: log}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/ask", s.handleAsk)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/documents/", s.handleDocumentScoped)
	mux.HandleFunc("/api/cache", s.handleCache)
	if s.deps.MetricsHandler != nil {
		mux.Handle("/metrics", s.deps.MetricsHandler)
	}
	return withCORS(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("route not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Document Q&A API",
		"endpoints": map[string]string{
			"upload":    "POST /api/upload",
			"ask":       "POST /api/ask",
			"documents": "GET /api/documents",
			"cache":     "DELETE /api/cache",
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	doc, err := s.saveUpload(w, r)
	if s.deps.Metrics != nil {
		s.deps.Metrics.Upload(err == nil)
	}
	if err != nil {
		s.log.Warn("upload rejected", zap.Error(err))
		writeErr(w, statusFor(err), err)
		return
	}

	if s.deps.Ingest != nil {
		if path, err := s.deps.Docs.Path(r.Context(), doc.ID); err == nil {
			runID, err := s.deps.Ingest.StartIngest(r.Context(), doc.ID, path)
			status := "started"
			if err != nil {
				status = "start_failed"
				s.log.Warn("start ingest failed", zap.String("document_id", doc.ID), zap.Error(err))
			} else {
				s.log.Info("ingest started", zap.String("document_id", doc.ID), zap.String("run_id", runID))
			}
			if s.deps.Metrics != nil {
				s.deps.Metrics.Ingest(status)
			}
		}
	}

	writeJSON(w, http.StatusOK, models.UploadResponse{
		DocumentID: doc.ID,
		Message:    "Document uploaded successfully",
	})
}

func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (models.Document, error) {
	// room for the multipart envelope on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			return models.Document{}, fmt.Errorf("%w: limit is %d bytes", util.ErrFileTooLarge, s.cfg.MaxUploadSize)
		}
		return models.Document{}, fmt.Errorf("parse multipart: %w", err)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	fh, ok := uploadedFile(r.MultipartForm)
	if !ok {
		return models.Document{}, fmt.Errorf("no file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.deps.Docs.Save(r.Context(), fh.Filename, f)
}

func uploadedFile(form *multipart.Form) (*multipart.FileHeader, bool) {
	if files := form.File["file"]; len(files) > 0 {
		return files[0], true
	}
	for _, v := range form.File {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.Question = strings.TrimSpace(req.Question)
	if req.DocumentID == "" || req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("document_id and question are required"))
		return
	}

	start := time.Now()
	answer, err := s.deps.QA.Answer(r.Context(), req.DocumentID, req.Question)
	elapsed := time.Since(start)
	status := askStatus(err)
	s.recordAsk(r.Context(), req, status, err, elapsed)
	if err != nil {
		s.log.Warn("ask failed",
			zap.String("document_id", req.DocumentID),
			zap.String("status", status),
			zap.Error(err),
		)
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, models.QuestionResponse{Answer: answer})
}

func (s *Server) recordAsk(ctx context.Context, req models.QuestionRequest, status string, askErr error, d time.Duration) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.Ask(status, d)
	}
	if s.deps.AskLog == nil {
		return
	}
	rec := models.AskRecord{
		DocumentID:   req.DocumentID,
		QuestionHash: cache.AnswerKey(req.DocumentID, req.Question),
		Status:       status,
		DurationMS:   d.Milliseconds(),
	}
	if askErr != nil {
		rec.Error = askErr.Error()
	}
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.deps.AskLog.Insert(ctx, rec); err != nil {
		s.log.Warn("ask log insert failed", zap.Error(err))
	}
}

func askStatus(err error) string {
	switch {
	case err == nil:
		return models.AskStatusOK
	case errors.Is(err, util.ErrDocumentNotFound):
		return models.AskStatusNotFound
	case errors.Is(err, util.ErrUpstream):
		return models.AskStatusUpstreamError
	default:
		return models.AskStatusError
	}
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	docs, err := s.deps.Docs.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocumentScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/documents/"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] == "backfill":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		if s.deps.Ingest == nil {
			writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("ingest worker not configured"))
			return
		}
		runID, err := s.deps.Ingest.StartBackfill(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"run_id": runID})
	case len(parts) == 2 && parts[1] == "file":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		path, err := s.deps.Docs.Path(r.Context(), parts[0])
		if err != nil {
			writeErr(w, statusFor(err), err)
			return
		}
		http.ServeFile(w, r, path)
	case len(parts) == 2 && parts[1] == "asks":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		if s.deps.AskLog == nil {
			writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("ask log not configured"))
			return
		}
		recs, err := s.deps.AskLog.ListByDocument(r.Context(), parts[0], 50)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"asks": recs})
	case len(parts) == 2 && parts[1] == "cache":
		if r.Method != http.MethodDelete {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.deps.QA.Forget(parts[0])
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("route not found"))
	}
}

// handleCache drops every cached document and answer.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := s.deps.QA.Reset(r.Context()); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("caches cleared")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func statusFor(err error) int {
	switch {
	// a timed-out model call is also an upstream error; the timeout wins
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, util.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, util.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, util.ErrInvalidFileType):
		return http.StatusBadRequest
	}
	low := strings.ToLower(err.Error())
	if strings.Contains(low, "parse multipart") || strings.Contains(low, "no file provided") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "DQ-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		return apiError{
			Code:    "DQ-API-5020",
			Message: "Model provider unavailable. Retry shortly.",
		}
	case status == http.StatusServiceUnavailable:
		return apiError{
			Code:    "DQ-API-5030",
			Message: "This feature needs a backend that is not configured.",
		}
	case status == http.StatusGatewayTimeout:
		return apiError{
			Code:    "DQ-API-5040",
			Message: "Request timed out or was cancelled.",
		}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "DQ-DB-5001",
				Message: "Database schema is not initialized. Restart the API to create it.",
			}
		case strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "DQ-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "DQ-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "DQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "DQ-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "DQ-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusRequestEntityTooLarge:
		code = "DQ-API-4013"
		msg = "File exceeds the upload size limit."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, util.ErrDocumentNotFound):
			msg = "Document not found."
		case errors.Is(err, util.ErrInvalidFileType):
			msg = "File type not allowed."
		case strings.Contains(raw, "document_id and question are required"):
			msg = "Both document_id and question are required."
		case strings.Contains(raw, "no file provided"):
			msg = "No file was provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
