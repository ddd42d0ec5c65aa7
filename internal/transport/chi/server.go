// Package chi exposes the resumatch use cases over HTTP. Routes are
// hand-written chi handlers; the error-handler chain maps domain
// sentinels onto the API status codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
	healthuc "github.com/talentsift/resumatch/internal/usecase/health"
	rankuc "github.com/talentsift/resumatch/internal/usecase/rank"
)

// maxUploadSize bounds a single resume upload.
const maxUploadSize = 10 << 20 // 10MB

// Error codes returned in the JSON error body.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeResumeNotFound     = "resume_not_found"
	codeVectorDimMismatch  = "vector_dim_mismatch"
	codeRateLimited        = "rate_limited"
	codeEmbeddingProvider  = "embedding_provider_error"
	codeBackendUnavailable = "backend_unavailable"
	codeInternalError      = "internal_error"
)

// Matcher runs the ranking pipeline.
type Matcher interface {
	Rank(ctx context.Context, jobDescription string, threshold float64, limit int, withFeedback bool) (rankuc.Result, error)
}

// ResumeService manages stored resumes.
type ResumeService interface {
	Ingest(ctx context.Context, filename, sourceURL string, raw []byte) (resume.Resume, error)
	Get(ctx context.Context, id string) (resume.Resume, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) (storage.Page, error)
}

// HealthChecker produces the dependency health report.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// MatchDefaults fill optional match parameters the request omits.
type MatchDefaults struct {
	Threshold float64
	Limit     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP API.
type Server struct {
	resumes       ResumeService
	matcher       Matcher
	health        HealthChecker
	defaults      MatchDefaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	resumes ResumeService,
	matcher Matcher,
	health HealthChecker,
	defaults MatchDefaults,
	logger *zap.Logger,
) *Server {
	s := &Server{
		resumes:  resumes,
		matcher:  matcher,
		health:   health,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		dimMismatchHandler,
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeResumeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, codeBackendUnavailable),
	}
	return s
}

// Routes mounts the API on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/match", s.Match)
		r.Route("/resumes", func(r chi.Router) {
			r.Post("/", s.IngestResume)
			r.Get("/", s.ListResumes)
			r.Get("/{id}", s.GetResume)
			r.Delete("/{id}", s.DeleteResume)
		})
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Match handles POST /api/v1/match.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	threshold := s.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := s.defaults.Limit
	if req.MaxResults != nil {
		limit = *req.MaxResults
	}
	withFeedback := req.WithFeedback != nil && *req.WithFeedback

	res, err := s.matcher.Rank(r.Context(), req.JobDescription, threshold, limit, withFeedback)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matchResultToResponse(res))
}

// IngestResume handles POST /api/v1/resumes.
func (s *Server) IngestResume(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Form field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Read upload: "+err.Error())
		return
	}
	if len(raw) > maxUploadSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("file exceeds the %d byte upload limit", maxUploadSize))
		return
	}

	stored, err := s.resumes.Ingest(r.Context(), header.Filename, r.FormValue("source_url"), raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/resumes/"+stored.ID())
	writeJSON(w, http.StatusCreated, resumeToResponse(&stored))
}

// GetResume handles GET /api/v1/resumes/{id}.
func (s *Server) GetResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.resumes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resumeToResponse(&res))
}

// DeleteResume handles DELETE /api/v1/resumes/{id}.
func (s *Server) DeleteResume(w http.ResponseWriter, r *http.Request) {
	if err := s.resumes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListResumes handles GET /api/v1/resumes. The cursor is the numeric
// offset of the next page, echoed back as next_cursor while more
// records remain.
func (s *Server) ListResumes(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "cursor must be a non-negative integer")
			return
		}
		offset = n
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	page, err := s.resumes.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]resumeResponse, len(page.Resumes))
	for i := range page.Resumes {
		items[i] = resumeToResponse(&page.Resumes[i])
	}

	resp := resumeListResponse{
		Items:   items,
		Total:   page.Total,
		HasMore: offset+len(items) < page.Total,
	}
	if resp.HasMore {
		c := strconv.Itoa(offset + len(items))
		resp.NextCursor = &c
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]healthCheck, len(report.Checks))
	for name, c := range report.Checks {
		checks[name] = healthCheck{
			Status:    string(c.Status),
			LatencyMS: float64(c.Latency) / float64(time.Millisecond),
			Error:     c.Error,
		}
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type matchRequest struct {
	JobDescription string   `json:"job_description"`
	Threshold      *float64 `json:"threshold,omitempty"`
	MaxResults     *int     `json:"max_results,omitempty"`
	WithFeedback   *bool    `json:"with_feedback,omitempty"`
}

type matchResponse struct {
	QueryPreview string      `json:"query_preview"`
	Threshold    float64     `json:"threshold"`
	Count        int         `json:"count"`
	Results      []matchItem `json:"results"`
}

type matchItem struct {
	ResumeID     string  `json:"resume_id"`
	Filename     string  `json:"filename"`
	SourceURL    string  `json:"source_url,omitempty"`
	Similarity   float64 `json:"similarity"`
	ScorePercent float64 `json:"score_percent"`
	Feedback     string  `json:"feedback,omitempty"`
}

type resumeResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SourceURL  string    `json:"source_url,omitempty"`
	Preview    string    `json:"preview"`
	Searchable bool      `json:"searchable"`
	CreatedAt  time.Time `json:"created_at"`
}

type resumeListResponse struct {
	Items      []resumeResponse `json:"items"`
	Total      int              `json:"total"`
	HasMore    bool             `json:"has_more"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

type healthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]healthCheck `json:"checks"`
}

type healthCheck struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func matchResultToResponse(res rankuc.Result) matchResponse {
	results := make([]matchItem, len(res.Matches))
	for i := range res.Matches {
		m := &res.Matches[i]
		results[i] = matchItem{
			ResumeID:     m.ResumeID(),
			Filename:     m.Filename(),
			SourceURL:    m.SourceURL(),
			Similarity:   m.Similarity(),
			ScorePercent: m.ScorePercent(),
			Feedback:     m.Feedback(),
		}
	}
	return matchResponse{
		QueryPreview: res.QueryPreview,
		Threshold:    res.Threshold,
		Count:        len(results),
		Results:      results,
	}
}

func resumeToResponse(r *resume.Resume) resumeResponse {
	return resumeResponse{
		ID:         r.ID(),
		Filename:   r.Filename(),
		SourceURL:  r.SourceURL(),
		Preview:    r.Preview(),
		Searchable: r.HasContent(),
		CreatedAt:  r.CreatedAt(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing
// internals. Validation and dimension text is authored in the domain
// layer and safe to echo verbatim.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrVectorDimMismatch) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// dimMismatchHandler handles ErrVectorDimMismatch with the observed
// dimensions as extra fields.
func dimMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		return false
	}
	var dme *domain.DimMismatchError
	if errors.As(err, &dme) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":    codeVectorDimMismatch,
			"message": msg,
			"got":     dme.Got,
			"want":    dme.Want,
		})
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, codeVectorDimMismatch, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
