package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/config"
	"github.com/harrison/labourcheck/internal/delivery"
	"github.com/harrison/labourcheck/internal/funnel"
	"github.com/harrison/labourcheck/internal/logger"
	"github.com/harrison/labourcheck/internal/metrics"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/notify"
	"github.com/harrison/labourcheck/internal/session"
	"github.com/harrison/labourcheck/internal/tracking"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var scenarioA = []string{"8+ projects", "70-100%", "Rarely", "Advanced software", "<5 hours", "Quality issues", "Good"}

const landing = "https://landing.test/book"

type recordingSMS struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (r *recordingSMS) SendSMS(ctx context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.bodies = append(r.bodies, body)
	return nil
}

type stack struct {
	handler http.Handler
	repo    *session.MemoryStore
	sms     *recordingSMS
	signer  *tracking.Signer
}

func newStack(t *testing.T) *stack {
	t.Helper()
	repo := session.NewMemoryStore()
	sms := &recordingSMS{}
	signer, err := tracking.NewSigner("0123456789abcdef-test-secret", "http://lc.test", time.Hour)
	require.NoError(t, err)

	del, err := delivery.New(delivery.Options{
		Repo:   repo,
		Mailer: notify.LogMailer{Log: logger.NewNoOpLogger()},
		SMS:    sms,
		Links:  signer,
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)
	fn, err := funnel.New(funnel.Options{Catalog: catalog.Default(), Repo: repo, Delivery: del, Metrics: m})
	require.NoError(t, err)

	srv, err := New(Options{
		Funnel:    fn,
		FollowUps: del,
		Config:    config.ServerConfig{Debug: true, EnableCORS: true, LandingURL: landing},
		Metrics:   m,
		Gatherer:  reg,
	})
	require.NoError(t, err)
	return &stack{handler: srv.Handler(), repo: repo, sms: sms, signer: signer}
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *stack) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp testResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (s *stack) start(t *testing.T) funnel.Started {
	t.Helper()
	rec, resp := s.do(t, http.MethodPost, "/api/sessions", map[string]string{"email": "Owner@Acme.test", "builderName": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var started funnel.Started
	require.NoError(t, json.Unmarshal(resp.Data, &started))
	return started
}

// complete answers every question with scenario A and returns the final step body.
func (s *stack) complete(t *testing.T, started funnel.Started) map[string]json.RawMessage {
	t.Helper()
	qid := started.Question.ID
	var last map[string]json.RawMessage
	for i, text := range scenarioA {
		rec, resp := s.do(t, http.MethodPost, "/api/sessions/"+started.SessionID+"/answers",
			map[string]interface{}{"questionId": qid, "text": text})
		require.Equal(t, http.StatusOK, rec.Code, "answer %d: %s", i, rec.Body.String())
		last = map[string]json.RawMessage{}
		require.NoError(t, json.Unmarshal(resp.Data, &last))
		if q, ok := last["question"]; ok {
			var next models.Question
			require.NoError(t, json.Unmarshal(q, &next))
			qid = next.ID
		}
	}
	return last
}

func TestHealth(t *testing.T) {
	s := newStack(t)
	rec, resp := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"status":"ok"`)
}

func TestCatalog(t *testing.T) {
	s := newStack(t)
	rec, resp := s.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Questions []models.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Len(t, body.Questions, catalog.Default().Len())
}

func TestFullRun(t *testing.T) {
	s := newStack(t)
	started := s.start(t)
	assert.NotEmpty(t, started.SessionID)
	assert.Equal(t, 0, started.Progress.Answered)

	last := s.complete(t, started)
	assert.Equal(t, `"complete"`, string(last["kind"]))
	var rep models.Report
	require.NoError(t, json.Unmarshal(last["report"], &rep))
	assert.Equal(t, 79, rep.OverallScore)
	assert.Equal(t, models.ColorGreen, rep.ScoreColor)

	rec, resp := s.do(t, http.MethodGet, "/api/sessions/"+started.SessionID+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &rep))
	assert.Equal(t, 79, rep.OverallScore)

	rec, _ = s.do(t, http.MethodGet, "/api/sessions/"+started.SessionID+"/report?format=html", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>")

	rec, _ = s.do(t, http.MethodGet, "/api/sessions/"+started.SessionID+"/progress", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"complete":true`)

	stored, err := s.repo.Get(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.test", stored.Email)
	assert.Equal(t, 79, stored.OverallScore)
}

func TestErrorMapping(t *testing.T) {
	s := newStack(t)
	started := s.start(t)
	id := started.SessionID
	first := started.Question.ID

	done := s.start(t)
	s.complete(t, done)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"invalid email", http.MethodPost, "/api/sessions", map[string]string{"email": "not-an-email"}, http.StatusBadRequest},
		{"missing email", http.MethodPost, "/api/sessions", map[string]string{}, http.StatusBadRequest},
		{"empty answer", http.MethodPost, "/api/sessions/" + id + "/answers", map[string]interface{}{"questionId": first, "text": "   "}, http.StatusBadRequest},
		{"wrong question", http.MethodPost, "/api/sessions/" + id + "/answers", map[string]interface{}{"questionId": first + 3, "text": "x"}, http.StatusConflict},
		{"already complete", http.MethodPost, "/api/sessions/" + done.SessionID + "/answers", map[string]interface{}{"questionId": first, "text": "x"}, http.StatusConflict},
		{"unknown session answer", http.MethodPost, "/api/sessions/nope/answers", map[string]interface{}{"questionId": 1, "text": "x"}, http.StatusNotFound},
		{"unknown session progress", http.MethodGet, "/api/sessions/nope/progress", nil, http.StatusNotFound},
		{"report not ready", http.MethodGet, "/api/sessions/" + id + "/report", nil, http.StatusNotFound},
		{"bad report format", http.MethodGet, "/api/sessions/" + done.SessionID + "/report?format=doc", nil, http.StatusBadRequest},
		{"invalid phone", http.MethodPost, "/api/sessions/" + id + "/phone", map[string]string{"phone": "call me"}, http.StatusBadRequest},
		{"phone for unknown session", http.MethodPost, "/api/sessions/nope/phone", map[string]string{"phone": "+61400000000"}, http.StatusNotFound},
		{"bad follow-up token", http.MethodGet, "/t/not-a-token", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPhoneAndFollowUp(t *testing.T) {
	s := newStack(t)
	started := s.start(t)
	s.complete(t, started)

	rec, resp := s.do(t, http.MethodPost, "/api/sessions/"+started.SessionID+"/phone", map[string]string{"phone": "+61 400 000 000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(resp.Data), `"phone":"+61400000000"`)

	require.Len(t, s.sms.bodies, 1)
	assert.Contains(t, s.sms.bodies[0], "79/100")
	assert.Contains(t, s.sms.bodies[0], "http://lc.test/t/")

	token := s.sms.bodies[0][strings.Index(s.sms.bodies[0], "http://lc.test/t/")+len("http://lc.test/t/"):]
	rec, _ = s.do(t, http.MethodGet, "/t/"+token, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, landing, rec.Header().Get("Location"))

	stored, err := s.repo.Get(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.Converted)
	require.NotNil(t, stored.ConvertedAt)
}

func TestPhone_SMSFailureKeepsNumber(t *testing.T) {
	s := newStack(t)
	s.sms.err = errors.New("gateway down")
	started := s.start(t)

	rec, resp := s.do(t, http.MethodPost, "/api/sessions/"+started.SessionID+"/phone", map[string]string{"phone": "0400 000 000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"smsError"`)

	stored, err := s.repo.Get(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "0400000000", stored.Phone)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newStack(t)
	s.do(t, http.MethodGet, "/healthz", nil)
	s.start(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `labourcheck_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, "labourcheck_sessions_started_total 1")
}

func TestCORSPreflight(t *testing.T) {
	s := newStack(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "https://builder.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidAnswer, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", models.ErrInvalidPhone), http.StatusBadRequest},
		{funnel.ErrInvalidEmail, http.StatusBadRequest},
		{models.ErrAlreadyComplete, http.StatusConflict},
		{models.ErrUnexpectedQuestion, http.StatusConflict},
		{models.ErrSessionNotFound, http.StatusNotFound},
		{funnel.ErrReportNotReady, http.StatusNotFound},
		{models.ErrInvalidToken, http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
