package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"docqa/internal/config"
	"docqa/internal/documents"
	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/qa"
	"docqa/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAskLog struct {
	mu   sync.Mutex
	recs []models.AskRecord
}

func (m *memAskLog) Insert(_ context.Context, rec models.AskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memAskLog) ListByDocument(_ context.Context, documentID string, limit int) ([]models.AskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AskRecord, 0)
	for i := len(m.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.recs[i].DocumentID == documentID {
			out = append(out, m.recs[i])
		}
	}
	return out, nil
}

type fakeIngest struct {
	started []string
}

func (f *fakeIngest) StartIngest(_ context.Context, documentID, _ string) (string, error) {
	f.started = append(f.started, documentID)
	return "run-" + documentID, nil
}

func (f *fakeIngest) StartBackfill(context.Context) (string, error) {
	return "run-backfill", nil
}

type testEnv struct {
	srv    http.Handler
	docs   *documents.Store
	askLog *memAskLog
	ingest *fakeIngest
}

func newTestEnv(t *testing.T, model qa.Completer) *testEnv {
	t.Helper()
	cfg := config.Config{MaxUploadSize: 1024}
	docs, err := documents.NewStore(documents.Config{Dir: t.TempDir(), MaxUploadSize: cfg.MaxUploadSize})
	require.NoError(t, err)
	if model == nil {
		model = providers.NewMockProvider()
	}
	env := &testEnv{docs: docs, askLog: &memAskLog{}, ingest: &fakeIngest{}}
	env.srv = NewServer(cfg, Deps{
		Docs:   docs,
		QA:     qa.NewService(docs, model, qa.DefaultConfig()),
		AskLog: env.askLog,
		Ingest: env.ingest,
	}).Routes()
	return env
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) ask(t *testing.T, documentID, question string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(models.QuestionRequest{DocumentID: documentID, Question: question})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(b)))
	return rec
}

func decodeErrCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestUploadAskAndList(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.upload(t, "report.txt", []byte("The Great Report. Written by Jane Doe. This report covers Q1 sales."))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	require.NotEmpty(t, up.DocumentID)
	assert.Equal(t, []string{up.DocumentID}, env.ingest.started)

	rec = env.ask(t, up.DocumentID, "Who is the author?")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ans models.QuestionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ans))
	assert.Contains(t, ans.Answer, "Jane Doe")

	require.Len(t, env.askLog.recs, 1)
	assert.Equal(t, models.AskStatusOK, env.askLog.recs[0].Status)
	assert.Len(t, env.askLog.recs[0].QuestionHash, 64)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Documents []models.Document `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, up.DocumentID, list.Documents[0].ID)
	assert.Equal(t, "text/plain", list.Documents[0].ContentType)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/"+up.DocumentID+"/file", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jane Doe")
}

func TestUploadRejectsBadType(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.upload(t, "evil.exe", []byte("MZ"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DQ-API-4001", decodeErrCode(t, rec))
	assert.Empty(t, env.ingest.started)
}

func TestUploadRejectsLargeFile(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.upload(t, "big.txt", bytes.Repeat([]byte("a"), 2048))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "DQ-API-4013", decodeErrCode(t, rec))
}

func TestUploadWithoutFile(t *testing.T) {
	env := newTestEnv(t, nil)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.ask(t, "", "Who?")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ask", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "DQ-API-4005", decodeErrCode(t, rec))
}

func TestAskUnknownDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.ask(t, "does-not-exist", "Who is the author?")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DQ-API-4004", decodeErrCode(t, rec))
	require.Len(t, env.askLog.recs, 1)
	assert.Equal(t, models.AskStatusNotFound, env.askLog.recs[0].Status)
}

type brokenModel struct{}

func (brokenModel) Complete(context.Context, providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	return providers.CompletionResponse{}, providers.ProviderInfo{Name: "groq"}, errors.New("groq chat error 503: unavailable")
}

func TestAskUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, brokenModel{})
	rec := env.upload(t, "a.txt", []byte("Some text."))
	require.Equal(t, http.StatusOK, rec.Code)
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	rec = env.ask(t, up.DocumentID, "What is this about?")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "DQ-API-5020", decodeErrCode(t, rec))
	assert.Equal(t, models.AskStatusUpstreamError, env.askLog.recs[0].Status)
}

type countingModel struct {
	mu    sync.Mutex
	calls int
}

func (m *countingModel) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return providers.NewMockProvider().Complete(ctx, req)
}

func (m *countingModel) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type timeoutModel struct{}

func (timeoutModel) Complete(context.Context, providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	return providers.CompletionResponse{}, providers.ProviderInfo{Name: "groq"}, fmt.Errorf("groq chat request failed: %w", context.DeadlineExceeded)
}

func TestAskModelTimeout(t *testing.T) {
	env := newTestEnv(t, timeoutModel{})
	rec := env.upload(t, "a.txt", []byte("Some text."))
	require.Equal(t, http.StatusOK, rec.Code)
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	rec = env.ask(t, up.DocumentID, "What is this about?")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "DQ-API-5040", decodeErrCode(t, rec))
	assert.Equal(t, models.AskStatusUpstreamError, env.askLog.recs[0].Status)
}

func TestCacheRoutes(t *testing.T) {
	model := &countingModel{}
	env := newTestEnv(t, model)
	rec := env.upload(t, "a.txt", []byte("Alpha beta. Gamma delta."))
	require.Equal(t, http.StatusOK, rec.Code)
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	require.Equal(t, http.StatusOK, env.ask(t, up.DocumentID, "What is gamma?").Code)
	require.Equal(t, http.StatusOK, env.ask(t, up.DocumentID, "what is gamma").Code)
	assert.Equal(t, 1, model.count())

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/"+up.DocumentID+"/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusOK, env.ask(t, up.DocumentID, "What is gamma?").Code)
	assert.Equal(t, 2, model.count())

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAskHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.upload(t, "a.txt", []byte("Alpha beta."))
	require.Equal(t, http.StatusOK, rec.Code)
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	require.Equal(t, http.StatusOK, env.ask(t, up.DocumentID, "alpha?").Code)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/"+up.DocumentID+"/asks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Asks []models.AskRecord `json:"asks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Asks, 1)
	assert.Equal(t, models.AskStatusOK, body.Asks[0].Status)
}

func TestRootHealthAndCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/upload")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/ask", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackfill(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/documents/backfill", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-backfill")
}

func TestToAPIError(t *testing.T) {
	cases := []struct {
		status int
		err    error
		code   string
	}{
		{http.StatusBadRequest, fmt.Errorf("invalid json: eof"), "DQ-API-4001"},
		{http.StatusNotFound, util.ErrDocumentNotFound, "DQ-API-4004"},
		{http.StatusBadGateway, util.ErrUpstream, "DQ-API-5020"},
		{http.StatusInternalServerError, errors.New("dial tcp 127.0.0.1:5432: connection refused"), "DQ-DB-5002"},
		{http.StatusInternalServerError, errors.New("boom"), "DQ-API-5000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, toAPIError(c.status, c.err).Code, c.err.Error())
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("resolve: %w", util.ErrDocumentNotFound)))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("%w: %w", util.ErrUpstream, util.ErrRateLimited)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(util.ErrFileTooLarge))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(fmt.Errorf("%w: %w", util.ErrUpstream, context.DeadlineExceeded)))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(fmt.Errorf("%w: %w", util.ErrUpstream, context.Canceled)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}

