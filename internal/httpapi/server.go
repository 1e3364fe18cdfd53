// Package httpapi is the HTTP + WebSocket surface for the review
// engine: REST endpoints to start review()/compare() jobs and query
// sessions, and a job-progress WebSocket that streams JobEvents.
package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/design-review/internal/compare"
	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/logging"
	"github.com/raysh454/design-review/internal/model"
	"github.com/raysh454/design-review/internal/review"
	"github.com/raysh454/design-review/internal/sessionindex"
)

// Server is the HTTP + WebSocket API surface for the review engine,
// adapted from the teacher's internal/server.Server (chi router,
// websocket.Upgrader, structured request logging middleware).
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   interfaces.Logger
}

// NewServer builds a Server from cfg. All of cfg's dependencies
// (Orchestrator, Loader, Registry, Store) must already be constructed;
// NewServer only wires routes.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		router: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.corsMiddleware)

	r.Options("/review", s.optionsHandler("POST"))
	r.Options("/compare", s.optionsHandler("POST"))
	r.Options("/sessions/{sessionID}", s.optionsHandler("GET"))
	r.Options("/sessions", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/sessions/diff", s.optionsHandler("GET"))

	r.Post("/review", s.handleReview)
	r.Post("/compare", s.handleCompare)
	r.Get("/sessions/{sessionID}", s.handleGetSession)
	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/diff", s.handleDiffSessions)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)

	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler, logging every request the way the
// teacher's Server.ServeHTTP does.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []interfaces.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}
	s.logger.Info("http_request", fields...)
	s.router.ServeHTTP(w, r)
}

// HTTPServer builds an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming WS responses must not time out
	}
}

// Close releases server-owned resources (the orchestrator's in-flight
// jobs; Store/Index are owned by the caller).
func (s *Server) Close() {
	if s.cfg.Orchestrator != nil {
		s.cfg.Orchestrator.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// reviewRequest is the POST /review body (§6.1 input surface).
type reviewRequest struct {
	URL              string `json:"url"`
	Spec             string `json:"spec"`
	Selector         string `json:"selector,omitempty"`
	Annotate         *bool  `json:"annotate,omitempty"`
	Compact          bool   `json:"compact,omitempty"`
	GenerateMarkdown bool   `json:"generateMarkdown,omitempty"`
}

// handleReview starts a review() job and blocks until it completes,
// returning the persisted session summary (§4.2 "Public operations").
//
// @Summary Run a design review against a live URL
// @Accept json
// @Produce json
// @Param body body reviewRequest true "review request"
// @Success 200 {object} review.Result
// @Router /review [post]
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" || body.Spec == "" {
		writeError(w, http.StatusBadRequest, "url and spec are required")
		return
	}

	opts := review.DefaultOptions()
	opts.Selector = body.Selector
	opts.Compact = body.Compact
	opts.GenerateMarkdown = body.GenerateMarkdown
	if body.Annotate != nil {
		opts.Annotate = *body.Annotate
	}

	result, err := s.cfg.Orchestrator.Review(r.Context(), s.cfg.Loader, s.cfg.Registry, body.URL, body.Spec, opts)
	if result == nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("review failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeJSON(w, httpStatusForErrorKind(result.ErrorKind), result)
		return
	}

	if s.cfg.Index != nil && result.Manifest != nil {
		if idxErr := s.cfg.Index.Record(*result.Manifest, model.SessionKindReview, s.cfg.Store.Dir(result.SessionID)); idxErr != nil {
			s.logger.Warn("indexing session failed", interfaces.Field{Key: "error", Value: idxErr.Error()})
		}
	}

	s.logger.Info("review completed", interfaces.Field{Key: "sessionId", Value: result.SessionID}, interfaces.Field{Key: "grade", Value: result.OverallGrade})
	writeJSON(w, http.StatusOK, result)
}

// compareRequest is the POST /compare body.
type compareRequest struct {
	URL            string  `json:"url"`
	ReferencePath  string  `json:"referencePath"`
	Method         string  `json:"method,omitempty"`
	DiffStyle      string  `json:"diffStyle,omitempty"`
	PixelThreshold float64 `json:"pixelThreshold,omitempty"`
	SSIMThreshold  float64 `json:"ssimThreshold,omitempty"`
}

// @Summary Compare a live URL against a reference screenshot
// @Accept json
// @Produce json
// @Param body body compareRequest true "compare request"
// @Success 200 {object} model.CompareResult
// @Router /compare [post]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body compareRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" || body.ReferencePath == "" {
		writeError(w, http.StatusBadRequest, "url and referencePath are required")
		return
	}

	opts := review.DefaultCompareOptions()
	if body.Method != "" {
		opts.Method = compare.Method(body.Method)
	}
	if body.DiffStyle != "" {
		opts.DiffStyle = compare.DiffStyle(body.DiffStyle)
	}
	if body.PixelThreshold > 0 {
		opts.PixelThreshold = body.PixelThreshold
	}
	if body.SSIMThreshold > 0 {
		opts.SSIMThreshold = body.SSIMThreshold
	}

	result, err := s.cfg.Orchestrator.Compare(r.Context(), body.URL, body.ReferencePath, opts)
	if err != nil {
		s.logger.Warn("compare failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// @Summary Fetch a persisted session manifest
// @Produce json
// @Param sessionID path string true "session id"
// @Success 200 {object} model.SessionManifest
// @Router /sessions/{sessionID} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	manifest, err := s.cfg.Store.Load(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// @Summary List sessions for a URL, most recent first
// @Produce json
// @Param url query string true "page URL"
// @Success 200 {array} sessionindex.Entry
// @Router /sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}
	if s.cfg.Index == nil {
		writeJSON(w, http.StatusOK, []sessionindex.Entry{})
		return
	}
	entries, err := s.cfg.Index.History(url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// @Summary Diff two persisted review sessions for the same page
// @Produce json
// @Param old query string true "older session id"
// @Param new query string true "newer session id"
// @Success 200 {object} model.SessionDiff
// @Router /sessions/diff [get]
func (s *Server) handleDiffSessions(w http.ResponseWriter, r *http.Request) {
	oldID := r.URL.Query().Get("old")
	newID := r.URL.Query().Get("new")
	if oldID == "" || newID == "" {
		writeError(w, http.StatusBadRequest, "old and new session ids are required")
		return
	}

	diff, err := s.cfg.Orchestrator.DiffSessions(s.cfg.Store, oldID, newID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.cfg.Orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.cfg.Orchestrator.CancelJob(jobID)
	writeJSON(w, http.StatusNoContent, nil)
}

// handleJobWS streams a running job's events over a WebSocket, matching
// the teacher's handleFetchWS/handleEnumerateWS pattern: one JSON
// message per JobEvent, connection closed on the first write error while
// the job itself keeps running.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.cfg.Orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", interfaces.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func httpStatusForErrorKind(kind string) int {
	switch model.ErrorKind(kind) {
	case model.ErrSpecNotFound:
		return http.StatusNotFound
	case model.ErrSpecParseError, model.ErrSpecInvalidSeverity, model.ErrSpecCycle:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
