package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/match"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
	healthuc "github.com/talentsift/resumatch/internal/usecase/health"
	rankuc "github.com/talentsift/resumatch/internal/usecase/rank"
)

type stubMatcher struct {
	result rankuc.Result
	err    error

	calls        int
	gotJD        string
	gotThreshold float64
	gotLimit     int
	gotFeedback  bool
}

func (m *stubMatcher) Rank(_ context.Context, jd string, threshold float64, limit int, withFeedback bool) (rankuc.Result, error) {
	m.calls++
	m.gotJD = jd
	m.gotThreshold = threshold
	m.gotLimit = limit
	m.gotFeedback = withFeedback
	if m.err != nil {
		return rankuc.Result{}, m.err
	}
	return m.result, nil
}

type stubResumes struct {
	stored    resume.Resume
	ingestErr error
	getRes    resume.Resume
	getErr    error
	deleteErr error
	page      storage.Page
	listErr   error

	gotFilename  string
	gotSourceURL string
	gotRaw       []byte
	gotID        string
	gotOffset    int
	gotLimit     int
}

func (s *stubResumes) Ingest(_ context.Context, filename, sourceURL string, raw []byte) (resume.Resume, error) {
	s.gotFilename = filename
	s.gotSourceURL = sourceURL
	s.gotRaw = raw
	if s.ingestErr != nil {
		return resume.Resume{}, s.ingestErr
	}
	return s.stored, nil
}

func (s *stubResumes) Get(_ context.Context, id string) (resume.Resume, error) {
	s.gotID = id
	if s.getErr != nil {
		return resume.Resume{}, s.getErr
	}
	return s.getRes, nil
}

func (s *stubResumes) Delete(_ context.Context, id string) error {
	s.gotID = id
	return s.deleteErr
}

func (s *stubResumes) List(_ context.Context, offset, limit int) (storage.Page, error) {
	s.gotOffset = offset
	s.gotLimit = limit
	if s.listErr != nil {
		return storage.Page{}, s.listErr
	}
	return s.page, nil
}

type stubHealth struct {
	report healthuc.Report
}

func (s *stubHealth) Check(_ context.Context) healthuc.Report { return s.report }

func testDefaults() MatchDefaults {
	return MatchDefaults{Threshold: 0.7, Limit: 10}
}

func newTestRouter(resumes ResumeService, matcher Matcher, health HealthChecker) http.Handler {
	srv := NewServer(resumes, matcher, health, testDefaults(), zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func testResume(id, filename, content string) resume.Resume {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return resume.Reconstruct(id, filename, "https://files.example.com/"+filename, content, []float32{1, 0}, created)
}

func TestMatch_AppliesDefaults(t *testing.T) {
	matcher := &stubMatcher{result: rankuc.Result{QueryPreview: "Go engineer", Threshold: 0.7}}
	router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

	body := strings.NewReader(`{"job_description": "Go engineer"}`)
	req := httptest.NewRequest("POST", "/api/v1/match", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if matcher.gotThreshold != 0.7 {
		t.Errorf("threshold: got %v, want 0.7", matcher.gotThreshold)
	}
	if matcher.gotLimit != 10 {
		t.Errorf("limit: got %d, want 10", matcher.gotLimit)
	}
	if matcher.gotFeedback {
		t.Error("feedback requested without with_feedback")
	}
}

func TestMatch_ExplicitParams(t *testing.T) {
	matcher := &stubMatcher{result: rankuc.Result{Threshold: 0.5}}
	router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

	body := strings.NewReader(`{"job_description": "Go engineer", "threshold": 0.5, "max_results": 3, "with_feedback": true}`)
	req := httptest.NewRequest("POST", "/api/v1/match", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if matcher.gotJD != "Go engineer" {
		t.Errorf("job description: got %q", matcher.gotJD)
	}
	if matcher.gotThreshold != 0.5 {
		t.Errorf("threshold: got %v, want 0.5", matcher.gotThreshold)
	}
	if matcher.gotLimit != 3 {
		t.Errorf("limit: got %d, want 3", matcher.gotLimit)
	}
	if !matcher.gotFeedback {
		t.Error("with_feedback not forwarded")
	}
}

func TestMatch_ResponseBody(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := match.New("r1", "alice.txt", "https://files.example.com/alice.txt", 0.9, "go redis", created)
	first = first.WithFeedback("Great match!")
	second := match.New("r2", "bob.txt", "", 0.6, "java", created)

	matcher := &stubMatcher{result: rankuc.Result{
		QueryPreview: "Go engineer",
		Threshold:    0.5,
		Matches:      []match.Match{first, second},
	}}
	router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

	req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{"job_description": "Go engineer"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp matchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QueryPreview != "Go engineer" {
		t.Errorf("query_preview: got %q", resp.QueryPreview)
	}
	if resp.Threshold != 0.5 {
		t.Errorf("threshold: got %v, want 0.5", resp.Threshold)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("count: got %d (%d results), want 2", resp.Count, len(resp.Results))
	}
	got := resp.Results[0]
	if got.ResumeID != "r1" || got.Filename != "alice.txt" {
		t.Errorf("first result: got %+v", got)
	}
	if got.Similarity != 0.9 || got.ScorePercent != 90.0 {
		t.Errorf("scores: got similarity %v percent %v, want 0.9 / 90.0", got.Similarity, got.ScorePercent)
	}
	if got.Feedback != "Great match!" {
		t.Errorf("feedback: got %q", got.Feedback)
	}
	if resp.Results[1].Feedback != "" {
		t.Errorf("second feedback: got %q, want empty", resp.Results[1].Feedback)
	}
}

func TestMatch_InvalidBody(t *testing.T) {
	matcher := &stubMatcher{}
	router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

	req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{not json`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if matcher.calls != 0 {
		t.Errorf("matcher called %d times on invalid body", matcher.calls)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeBadRequest {
		t.Errorf("code: got %s, want %s", errResp.Code, codeBadRequest)
	}
}

func TestMatch_ValidationErrorEchoesMessage(t *testing.T) {
	matcher := &stubMatcher{err: fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidArgument)}
	router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

	req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{"job_description": "x", "threshold": 2}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("code: got %s, want %s", errResp.Code, codeValidationFailed)
	}
	if !strings.Contains(errResp.Message, "threshold must be between 0 and 1") {
		t.Errorf("message: got %q, want validation detail", errResp.Message)
	}
}

func TestMatch_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", fmt.Errorf("embed: %w", domain.ErrRateLimited), http.StatusTooManyRequests, codeRateLimited},
		{"provider error", fmt.Errorf("embed: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, codeEmbeddingProvider},
		{"backend down", fmt.Errorf("%w: vector search: timeout", domain.ErrBackendUnavailable), http.StatusServiceUnavailable, codeBackendUnavailable},
		{"unknown", errors.New("wat"), http.StatusInternalServerError, codeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := &stubMatcher{err: tt.err}
			router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

			req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{"job_description": "x"}`))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			var errResp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code: got %s, want %s", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestMatch_UnknownErrorMasksDetail(t *testing.T) {
	matcher := &stubMatcher{err: errors.New("pool exhausted at 10.0.0.3:6379")}
	router := newTestRouter(&stubResumes{}, matcher, &stubHealth{})

	req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{"job_description": "x"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if strings.Contains(rr.Body.String(), "10.0.0.3") {
		t.Errorf("internal detail leaked: %s", rr.Body.String())
	}
}

func multipartBody(t *testing.T, filename, content, sourceURL string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if sourceURL != "" {
		if err := mw.WriteField("source_url", sourceURL); err != nil {
			t.Fatalf("write source_url: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func TestIngestResume(t *testing.T) {
	resumes := &stubResumes{stored: testResume("abc-123", "alice.txt", "go redis postgres")}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	body, contentType := multipartBody(t, "alice.txt", "go redis postgres", "https://files.example.com/alice.txt")
	req := httptest.NewRequest("POST", "/api/v1/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/api/v1/resumes/abc-123" {
		t.Errorf("location: got %q", loc)
	}
	if resumes.gotFilename != "alice.txt" {
		t.Errorf("filename: got %q", resumes.gotFilename)
	}
	if resumes.gotSourceURL != "https://files.example.com/alice.txt" {
		t.Errorf("source_url: got %q", resumes.gotSourceURL)
	}
	if string(resumes.gotRaw) != "go redis postgres" {
		t.Errorf("raw: got %q", resumes.gotRaw)
	}

	var resp resumeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "abc-123" {
		t.Errorf("id: got %q", resp.ID)
	}
	if !resp.Searchable {
		t.Error("searchable: got false, want true")
	}
	if resp.Preview != "go redis postgres" {
		t.Errorf("preview: got %q", resp.Preview)
	}
}

func TestIngestResume_MissingFile(t *testing.T) {
	router := newTestRouter(&stubResumes{}, &stubMatcher{}, &stubHealth{})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("source_url", "https://example.com"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/resumes", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("code: got %s, want %s", errResp.Code, codeValidationFailed)
	}
}

func TestIngestResume_DimMismatch422(t *testing.T) {
	resumes := &stubResumes{
		ingestErr: fmt.Errorf("embedding for %q: %w", "alice.txt", domain.NewDimMismatch(2, 4)),
	}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	body, contentType := multipartBody(t, "alice.txt", "go", "")
	req := httptest.NewRequest("POST", "/api/v1/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["code"] != codeVectorDimMismatch {
		t.Errorf("code: got %v, want %s", resp["code"], codeVectorDimMismatch)
	}
	if resp["got"] != float64(2) || resp["want"] != float64(4) {
		t.Errorf("dimensions: got %v/%v, want 2/4", resp["got"], resp["want"])
	}
}

func TestGetResume(t *testing.T) {
	resumes := &stubResumes{getRes: testResume("abc-123", "alice.txt", "go redis")}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	req := httptest.NewRequest("GET", "/api/v1/resumes/abc-123", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resumes.gotID != "abc-123" {
		t.Errorf("id passed to service: got %q", resumes.gotID)
	}
	var resp resumeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Filename != "alice.txt" {
		t.Errorf("filename: got %q", resp.Filename)
	}
	if resp.CreatedAt.IsZero() {
		t.Error("created_at missing")
	}
}

func TestGetResume_NotFound(t *testing.T) {
	resumes := &stubResumes{getErr: fmt.Errorf("get resume: %w", domain.ErrNotFound)}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	req := httptest.NewRequest("GET", "/api/v1/resumes/missing", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeResumeNotFound {
		t.Errorf("code: got %s, want %s", errResp.Code, codeResumeNotFound)
	}
}

func TestDeleteResume(t *testing.T) {
	resumes := &stubResumes{}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	req := httptest.NewRequest("DELETE", "/api/v1/resumes/abc-123", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if resumes.gotID != "abc-123" {
		t.Errorf("id passed to service: got %q", resumes.gotID)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body: got %q, want empty", rr.Body.String())
	}
}

func TestListResumes_CursorPagination(t *testing.T) {
	resumes := &stubResumes{page: storage.Page{
		Resumes: []resume.Resume{
			testResume("r1", "alice.txt", "go"),
			testResume("r2", "bob.txt", "java"),
		},
		Total: 5,
	}}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	req := httptest.NewRequest("GET", "/api/v1/resumes?cursor=2&limit=2", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resumes.gotOffset != 2 || resumes.gotLimit != 2 {
		t.Errorf("pagination args: got offset %d limit %d, want 2/2", resumes.gotOffset, resumes.gotLimit)
	}

	var resp resumeListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(resp.Items))
	}
	if resp.Total != 5 {
		t.Errorf("total: got %d, want 5", resp.Total)
	}
	if !resp.HasMore {
		t.Error("has_more: got false, want true")
	}
	if resp.NextCursor == nil || *resp.NextCursor != "4" {
		t.Errorf("next_cursor: got %v, want 4", resp.NextCursor)
	}
}

func TestListResumes_LastPage(t *testing.T) {
	resumes := &stubResumes{page: storage.Page{
		Resumes: []resume.Resume{testResume("r5", "eve.txt", "rust")},
		Total:   5,
	}}
	router := newTestRouter(resumes, &stubMatcher{}, &stubHealth{})

	req := httptest.NewRequest("GET", "/api/v1/resumes?cursor=4", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp resumeListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.HasMore {
		t.Error("has_more: got true, want false")
	}
	if resp.NextCursor != nil {
		t.Errorf("next_cursor: got %q, want nil", *resp.NextCursor)
	}
	// Unset limit is delegated to the service default.
	if resumes.gotLimit != 0 {
		t.Errorf("limit: got %d, want 0", resumes.gotLimit)
	}
}

func TestListResumes_BadCursor(t *testing.T) {
	router := newTestRouter(&stubResumes{}, &stubMatcher{}, &stubHealth{})

	for _, q := range []string{"cursor=abc", "cursor=-1", "limit=0", "limit=x"} {
		req := httptest.NewRequest("GET", "/api/v1/resumes?"+q, http.NoBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", q, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestHealthCheck_Healthy(t *testing.T) {
	health := &stubHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.Check{
			"store":    {Status: healthuc.Healthy, Latency: 2 * time.Millisecond},
			"embedder": {Status: healthuc.Healthy, Latency: 15 * time.Millisecond},
		},
	}}
	router := newTestRouter(&stubResumes{}, &stubMatcher{}, health)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	store, ok := resp.Checks["store"]
	if !ok {
		t.Fatal("store check missing")
	}
	if store.LatencyMS != 2.0 {
		t.Errorf("store latency: got %v, want 2", store.LatencyMS)
	}
	if _, ok := resp.Checks["embedder"]; !ok {
		t.Error("embedder check missing")
	}
}

func TestHealthCheck_Degraded503(t *testing.T) {
	health := &stubHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.Check{
			"store": {Status: healthuc.Degraded, Error: "connection refused"},
		},
	}}
	router := newTestRouter(&stubResumes{}, &stubMatcher{}, health)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Checks["store"].Error != "connection refused" {
		t.Errorf("check error: got %q", resp.Checks["store"].Error)
	}
}
