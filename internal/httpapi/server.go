// Package httpapi implements the HTTP boundary (A4): the chat and
// document endpoints over chi routing/middleware, grounded in
// fbrzx-airplane-chat's internal/server package (chi.NewRouter +
// middleware stack + writeJSON/writeError JSON response helpers).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ragcore/internal/audit"
	"ragcore/internal/corpus"
	"ragcore/internal/model"
	"ragcore/internal/retrieval"
)

// Server wires HTTP handlers to the corpus and retrieval services.
type Server struct {
	router   http.Handler
	corpus   *corpus.Service
	retrieve *retrieval.Service
	audit    *audit.Store
	logger   *slog.Logger
}

// New constructs a Server exposing four endpoints.
func New(corpusSvc *corpus.Service, retrieveSvc *retrieval.Service, auditStore *audit.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s := &Server{router: mux, corpus: corpusSvc, retrieve: retrieveSvc, audit: auditStore, logger: logger}

	mux.Post("/chat", s.handleChat)
	mux.Get("/doc", s.handleListDocs)
	mux.Post("/doc", s.handleAddDoc)
	mux.Delete("/doc/{file_id}", s.handleDeleteDoc)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, http.StatusBadRequest, err)
		return
	}

	answer, err := s.retrieve.AnswerQuestion(r.Context(), req.Text)
	if err != nil {
		if isDomainError(err) {
			s.logger.Warn("chat domain error", "error", err)
			writeJSON(w, http.StatusOK, chatResponse{Response: ""})
			return
		}
		writeFault(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: answer.Text})
}

type docListResponse struct {
	Docs []model.FileMeta `json:"docs"`
}

func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, docListResponse{Docs: s.corpus.ListFiles()})
}

type addDocRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleAddDoc(w http.ResponseWriter, r *http.Request) {
	var req addDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, http.StatusBadRequest, err)
		return
	}

	fm, err := s.corpus.AddFile(r.Context(), req.Name, req.Content)
	s.recordAudit(r.Context(), audit.KindIngest, fm.FileID, req.Name, err)
	if err != nil {
		if isDomainError(err) {
			writeJSON(w, http.StatusOK, statusResponse{Status: "error"})
			return
		}
		writeFault(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	err := s.corpus.DeleteFile(r.Context(), fileID)
	s.recordAudit(r.Context(), audit.KindDelete, fileID, "", err)
	if err != nil {
		if isDomainError(err) {
			writeJSON(w, http.StatusOK, statusResponse{Status: "error"})
			return
		}
		writeFault(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// recordAudit is best-effort: a failure to write to the operations log
// never changes the HTTP response.
func (s *Server) recordAudit(ctx context.Context, kind audit.Kind, fileID, filename string, opErr error) {
	if s.audit == nil {
		return
	}
	status, detail := audit.StatusOK, ""
	if opErr != nil {
		status, detail = audit.StatusError, opErr.Error()
	}
	if fileID == "" {
		fileID = "unknown"
	}
	if err := s.audit.Record(ctx, kind, fileID, filename, status, detail); err != nil {
		s.logger.Warn("audit record failed", "kind", kind, "file_id", fileID, "error", err)
	}
}

// isDomainError reports whether err is a *model.Error, which the boundary
// reports as {"status":"error"}/HTTP 200 rather than an unhandled fault.
func isDomainError(err error) bool {
	var e *model.Error
	return errors.As(err, &e)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type faultResponse struct {
	Error string `json:"error"`
}

func writeFault(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, faultResponse{Error: err.Error()})
}

// RequestTimeout wraps a handler with a fixed deadline, for a
// configurable HTTP request timeout.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return middleware.Timeout(d)
}
