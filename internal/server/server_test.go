package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/jobmatch/internal/evaluator"
	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
	"github.com/muhammadolammi/jobmatch/internal/session"
)

type fakeEvaluator struct {
	result *jobmatch.EvaluationResult
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(context.Context, string, jobmatch.PreferenceSet, string, []jobmatch.ScrapedJobRecord) (*jobmatch.EvaluationResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeFetcher struct {
	objects map[string][]byte
}

func (f fakeFetcher) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

type testServer struct {
	router    *gin.Engine
	evaluator *fakeEvaluator
	sessions  *session.Manager
}

func newTestServer(t *testing.T, fetcher *fakeFetcher) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ev := &fakeEvaluator{}
	sessions := session.NewManager(session.Deps{Evaluator: ev, Logger: logger})
	h := &Handler{Sessions: sessions, Logger: logger}
	if fetcher != nil {
		h.Fetcher = fetcher
	}
	return &testServer{router: NewRouter(Config{}, h), evaluator: ev, sessions: sessions}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// readySession creates a session whose inputs pass validation and returns its
// id and the id of its only job.
func (ts *testServer) readySession(t *testing.T) (string, string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	id, jobID := snap.ID, snap.Jobs[0].ID

	base := "/api/v1/sessions/" + id
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, base+"/credential", gin.H{"apiKey": "sk-test"}).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, base+"/resume", gin.H{"text": "Jane Doe, Go engineer"}).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, base+"/jobs/"+jobID, gin.H{"description": "Build Go services"}).Code)
	return id, jobID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)

	w := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-test")
	assert.Contains(t, w.Body.String(), `"hasCredential":true`)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil).Code)
	assert.Zero(t, ts.sessions.Len())
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodPost, "/api/v1/sessions/nope/analyze", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session not found", decodeError(t, w))
}

func TestJobs(t *testing.T) {
	ts := newTestServer(t, nil)
	id, first := ts.readySession(t)
	base := "/api/v1/sessions/" + id

	w := ts.do(t, http.MethodPost, base+"/jobs", gin.H{"title": "SRE", "description": "Run clusters"})
	require.Equal(t, http.StatusCreated, w.Code)
	var job jobmatch.JobRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "SRE", job.Title)

	w = ts.do(t, http.MethodPost, base+"/jobs", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPut, base+"/jobs/missing", gin.H{"description": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, base+"/jobs/missing", nil).Code)

	w = ts.do(t, http.MethodDelete, base+"/jobs/"+first, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":true`)
}

func TestAddJob_MalformedBodyLeavesJobsUnchanged(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/jobs", bytes.NewBufferString("{bad"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s, ok := ts.sessions.Get(id)
	require.True(t, ok)
	assert.Len(t, s.Jobs(), 1)

	// Analyze still sees only the complete job.
	ts.evaluator.result = &jobmatch.EvaluationResult{Evaluations: []jobmatch.JobEvaluation{{JobID: "x"}}}
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/analyze", nil).Code)
}

func TestAddJob_ChunkedBody(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/jobs", bytes.NewBufferString(`{"title":"SRE","description":"Run clusters"}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var job jobmatch.JobRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "Run clusters", job.Description)

	s, _ := ts.sessions.Get(id)
	assert.Len(t, s.Jobs(), 2)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/jobs", bytes.NewBufferString(""))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, s.Jobs(), 3)
}

func TestRemoveLastJobIsNoop(t *testing.T) {
	ts := newTestServer(t, nil)
	id, jobID := ts.readySession(t)

	w := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id+"/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Removed bool                 `json:"removed"`
		Jobs    []jobmatch.JobRecord `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Removed)
	assert.Len(t, body.Jobs, 1)
}

func TestSetPreferences(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)
	path := "/api/v1/sessions/" + id + "/preferences"

	w := ts.do(t, http.MethodPut, path, gin.H{
		"salaryWeight": 10, "remoteWeight": 0, "cultureWeight": 5,
		"growthWeight": 5, "techStackWeight": 5, "customNotes": "No crypto",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"salaryWeight":10`)

	w = ts.do(t, http.MethodPut, path, gin.H{
		"salaryWeight": 11, "remoteWeight": 0, "cultureWeight": 5,
		"growthWeight": 5, "techStackWeight": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, path, gin.H{"salaryWeight": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_Success(t *testing.T) {
	ts := newTestServer(t, nil)
	id, jobID := ts.readySession(t)
	ts.evaluator.result = &jobmatch.EvaluationResult{Evaluations: []jobmatch.JobEvaluation{{
		JobID:       jobID,
		Status:      jobmatch.StatusMaybe,
		Metrics:     []jobmatch.MetricScore{},
		Pros:        []string{},
		Cons:        []string{},
		CoverLetter: "Dear team",
	}}}
	base := "/api/v1/sessions/" + id

	w := ts.do(t, http.MethodPost, base+"/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ts.evaluator.calls)

	w = ts.do(t, http.MethodGet, base+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result jobmatch.EvaluationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, jobID, result.Evaluations[0].JobID)

	w = ts.do(t, http.MethodGet, base+"/evaluations/"+jobID+"/cover-letter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dear team", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = ts.do(t, http.MethodGet, base+"/evaluations/"+jobID+"/tailored-resume", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, base+"/evaluations/other/cover-letter", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/reset", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, base+"/result", nil).Code)
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, ts *testServer, base string)
		wantCode int
		wantMsg  string
	}{
		{
			name: "missing credential",
			setup: func(t *testing.T, ts *testServer, base string) {
				ts.do(t, http.MethodPut, base+"/credential", gin.H{"apiKey": ""})
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  session.MsgMissingCredential,
		},
		{
			name: "missing resume",
			setup: func(t *testing.T, ts *testServer, base string) {
				ts.do(t, http.MethodPut, base+"/resume", gin.H{"text": ""})
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  session.MsgMissingResume,
		},
		{
			name: "provider failure",
			setup: func(_ *testing.T, ts *testServer, _ string) {
				ts.evaluator.err = &evaluator.ProviderError{Provider: "openai", Err: errors.New("timeout")}
			},
			wantCode: http.StatusBadGateway,
			wantMsg:  session.MsgAnalysisFailed,
		},
		{
			name: "no results",
			setup: func(_ *testing.T, ts *testServer, _ string) {
				ts.evaluator.err = evaluator.ErrNoEvaluations
			},
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  session.MsgNoResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			id, _ := ts.readySession(t)
			base := "/api/v1/sessions/" + id
			tt.setup(t, ts, base)

			w := ts.do(t, http.MethodPost, base+"/analyze", nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, w))
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(session.ErrRunInProgress))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(session.ErrResumeParse))
	assert.Equal(t, http.StatusNotFound, statusFor(session.ErrNoResult))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	if contentType != "" {
		h["Content-Type"] = []string{contentType}
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadResume(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)
	path := "/api/v1/sessions/" + id + "/resume/upload"

	body, ct := multipartBody(t, "resume.txt", "text/plain", []byte("Jane Doe\nStaff engineer"))
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resumeText":"Jane Doe\nStaff engineer","resumeWords":4}`, w.Body.String())

	body, ct = multipartBody(t, "resume.pdf", "application/pdf", []byte("garbage"))
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, session.MsgResumeParse, decodeError(t, w))

	snap := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Contains(t, snap.Body.String(), "Staff engineer")
}

func TestUploadResume_MissingFile(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)
	w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/resume/upload", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadResumeObject(t *testing.T) {
	ts := newTestServer(t, &fakeFetcher{objects: map[string][]byte{
		"resumes/jane.txt": []byte("Jane Doe from storage"),
	}})
	id, _ := ts.readySession(t)
	path := "/api/v1/sessions/" + id + "/resume/object"

	w := ts.do(t, http.MethodPost, path, gin.H{"key": "resumes/jane.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jane Doe from storage")

	assert.Equal(t, http.StatusBadGateway, ts.do(t, http.MethodPost, path, gin.H{"key": "missing.pdf"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, path, gin.H{}).Code)
}

func TestLoadResumeObject_NotConfigured(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.readySession(t)
	w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/resume/object", gin.H{"key": "a.pdf"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
