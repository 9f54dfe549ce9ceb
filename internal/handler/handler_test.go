package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medprep/medmcq-backend/internal/billing"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/quiz"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{service.ErrPremiumRequired, http.StatusPaymentRequired, response.ErrPremiumRequired},
		{fmt.Errorf("%w: %w", service.ErrQuestionsUnavailable, errors.New("dial tcp")), http.StatusBadGateway, response.ErrQuestionsUnavailable},
		{service.ErrRunNotFound, http.StatusNotFound, response.ErrRunNotFound},
		{service.ErrRunBusy, http.StatusConflict, response.ErrRunBusy},
		{quiz.ErrOptionOutOfRange, http.StatusBadRequest, response.ErrOptionOutOfRange},
		{quiz.ErrNoIncorrectAnswers, http.StatusConflict, response.ErrNoIncorrectAnswers},
		{quiz.ErrRestartNotConfirmed, http.StatusConflict, response.ErrRestartNotConfirmed},
		{fmt.Errorf("%w: boom", service.ErrPaymentProvider), http.StatusBadGateway, response.ErrPaymentProvider},
		{billing.ErrInvalidSignature, http.StatusBadRequest, response.ErrInvalidSignature},
		{service.ErrBillingDisabled, http.StatusServiceUnavailable, response.ErrBillingDisabled},
		{errors.New("unexpected"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := errorStatus(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Fatalf("errorStatus = %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestFailWithLogsUnexpectedErrors(t *testing.T) {
	tests := []struct {
		err     error
		logged  bool
		wantLog string
	}{
		{errors.New("connection reset"), true, "connection reset"},
		{fmt.Errorf("%w: card declined", service.ErrPaymentProvider), true, "card declined"},
		{service.ErrRunNotFound, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var buf bytes.Buffer
			log := zerolog.New(&buf)

			r := gin.New()
			r.Use(response.RequestIDMiddleware())
			r.GET("/fail", func(c *gin.Context) { failWith(c, log, tt.err) })

			reqID := uuid.NewString()
			req := httptest.NewRequest(http.MethodGet, "/fail", nil)
			req.Header.Set("X-Request-ID", reqID)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if !tt.logged {
				if buf.Len() != 0 {
					t.Fatalf("expected error logged: %s", buf.String())
				}
				return
			}
			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log is not JSON: %q", buf.String())
			}
			if entry["request_id"] != reqID || entry["level"] != "error" || entry["path"] != "/fail" {
				t.Fatalf("log entry %v", entry)
			}
			if msg, _ := entry["error"].(string); !strings.Contains(msg, tt.wantLog) {
				t.Fatalf("logged error %q", msg)
			}
		})
	}
}

// ─── Practice handler ───────────────────────────────────────────────

// inOrder keeps questions and options in their stored order.
type inOrder struct{}

func (inOrder) IntN(n int) int { return n - 1 }

type stubQuestions struct{ n int }

func (s stubQuestions) QuizQuestions(_ context.Context, _ int, moduleID string, _ int) ([]quiz.Question, error) {
	if moduleID == "locked" {
		return nil, service.ErrPremiumRequired
	}
	qs := make([]quiz.Question, s.n)
	for i := range qs {
		id := int64(i + 1)
		qs[i] = quiz.Question{
			ID:   id,
			Text: "Question",
			Options: []quiz.Option{
				{ID: id * 10, Text: "A", Correct: true},
				{ID: id*10 + 1, Text: "B"},
				{ID: id*10 + 2, Text: "C"},
			},
		}
	}
	return qs, nil
}

type openGate struct{}

func (openGate) CheckModule(context.Context, int, string) (*model.Module, error) { return nil, nil }
func (openGate) HasPremium(context.Context, int) (bool, error) { return true, nil }

type nopRecorder struct{}

func (nopRecorder) Open(context.Context, int, string) (uuid.UUID, error) { return uuid.New(), nil }
func (nopRecorder) QueueAttempt(context.Context, model.AttemptJob) error { return nil }
func (nopRecorder) QueueEnd(context.Context, model.SessionEndJob) error { return nil }

// jsonStore keeps runs as JSON so every read is a fresh copy.
type jsonStore struct {
	mu   sync.Mutex
	runs map[uuid.UUID][]byte
}

func (s *jsonStore) Create(_ context.Context, run *service.PracticeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(run)
	if err != nil {
		return err
	}
	s.runs[run.ID] = raw
	return nil
}

func (s *jsonStore) Get(_ context.Context, id uuid.UUID) (*service.PracticeRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *jsonStore) Update(_ context.Context, id uuid.UUID, fn func(*service.PracticeRun) error) (*service.PracticeRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(run); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	s.runs[id] = raw
	return run, nil
}

func (s *jsonStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	return nil
}

func (s *jsonStore) load(id uuid.UUID) (*service.PracticeRun, error) {
	raw, ok := s.runs[id]
	if !ok {
		return nil, service.ErrRunNotFound
	}
	var run service.PracticeRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func newPracticeRouter() *gin.Engine {
	svc := service.NewPracticeService(
		stubQuestions{n: 2},
		openGate{},
		nopRecorder{},
		&jsonStore{runs: make(map[uuid.UUID][]byte)},
		inOrder{},
		zerolog.Nop(),
	)
	h := NewPracticeHandler(svc, zerolog.Nop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		id, _ := strconv.Atoi(c.GetHeader("X-Test-User"))
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: id})
	})
	p := r.Group("/practice")
	p.POST("", h.Start)
	p.GET("/:run_id", h.Get)
	p.DELETE("/:run_id", h.End)
	p.POST("/:run_id/answer", h.Answer)
	p.POST("/:run_id/navigate", h.Navigate)
	p.POST("/:run_id/review", h.EnterReview)
	p.POST("/:run_id/restart", h.Restart)
	return r
}

type practiceEnvelope struct {
	Data  model.PracticeView `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func call(t *testing.T, r *gin.Engine, user int, method, path string, body any) (int, practiceEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", strconv.Itoa(user))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env practiceEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func TestPracticeHandlerFlow(t *testing.T) {
	r := newPracticeRouter()

	status, env := call(t, r, 1, http.MethodPost, "/practice", gin.H{"module_id": "cardiology"})
	if status != http.StatusCreated {
		t.Fatalf("start status %d", status)
	}
	run := "/practice/" + env.Data.RunID
	if env.Data.Stats.Total != 2 || env.Data.Question == nil || env.Data.Question.Number != 1 {
		t.Fatalf("started run %+v", env.Data)
	}

	status, env = call(t, r, 1, http.MethodPost, run+"/answer", gin.H{"position": 1})
	if status != http.StatusOK || !env.Data.Changed || env.Data.Question.Correct == nil || *env.Data.Question.Correct {
		t.Fatalf("wrong answer: %d %+v", status, env.Data.Question)
	}

	status, env = call(t, r, 1, http.MethodPost, run+"/answer", gin.H{"position": 0})
	if status != http.StatusOK || env.Data.Changed {
		t.Fatalf("second answer: %d changed=%v", status, env.Data.Changed)
	}

	status, _ = call(t, r, 1, http.MethodPost, run+"/navigate", gin.H{"direction": "next"})
	if status != http.StatusOK {
		t.Fatalf("navigate status %d", status)
	}
	status, env = call(t, r, 1, http.MethodPost, run+"/answer", gin.H{"position": 0})
	if status != http.StatusOK || env.Data.Results == nil || env.Data.Results.Score != 50 {
		t.Fatalf("final answer: %d %+v", status, env.Data)
	}

	status, env = call(t, r, 1, http.MethodPost, run+"/review", nil)
	if status != http.StatusOK || env.Data.Phase != quiz.PhaseReviewing || env.Data.Question.QuestionID != 1 {
		t.Fatalf("review: %d %+v", status, env.Data)
	}

	status, env = call(t, r, 1, http.MethodPost, run+"/restart", gin.H{"confirm": false})
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != string(response.ErrRestartNotConfirmed) {
		t.Fatalf("unconfirmed restart: %d %+v", status, env.Error)
	}

	status, env = call(t, r, 1, http.MethodPost, run+"/restart", gin.H{"confirm": true})
	if status != http.StatusOK || env.Data.Stats.Answered != 0 || env.Data.Phase != quiz.PhaseInProgress {
		t.Fatalf("restart: %d %+v", status, env.Data)
	}

	if status, _ = call(t, r, 1, http.MethodDelete, run, nil); status != http.StatusOK {
		t.Fatalf("end status %d", status)
	}
	if status, _ = call(t, r, 1, http.MethodGet, run, nil); status != http.StatusNotFound {
		t.Fatalf("get after end status %d", status)
	}
}

func TestPracticeHandlerRejects(t *testing.T) {
	r := newPracticeRouter()

	_, env := call(t, r, 1, http.MethodPost, "/practice", gin.H{"module_id": "cardiology"})
	run := "/practice/" + env.Data.RunID

	tests := []struct {
		name       string
		user       int
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"bad module id", 1, http.MethodPost, "/practice", gin.H{"module_id": "Bad Id"}, http.StatusBadRequest, response.ErrValidation},
		{"premium module", 1, http.MethodPost, "/practice", gin.H{"module_id": "locked"}, http.StatusPaymentRequired, response.ErrPremiumRequired},
		{"malformed run id", 1, http.MethodGet, "/practice/nope", nil, http.StatusBadRequest, response.ErrInvalidID},
		{"other user's run", 2, http.MethodGet, run, nil, http.StatusNotFound, response.ErrRunNotFound},
		{"missing position", 1, http.MethodPost, run + "/answer", gin.H{}, http.StatusBadRequest, response.ErrValidation},
		{"position out of range", 1, http.MethodPost, run + "/answer", gin.H{"position": 7}, http.StatusBadRequest, response.ErrOptionOutOfRange},
		{"unknown direction", 1, http.MethodPost, run + "/navigate", gin.H{"direction": "sideways"}, http.StatusBadRequest, response.ErrValidation},
		{"review without mistakes", 1, http.MethodPost, run + "/review", nil, http.StatusConflict, response.ErrNoIncorrectAnswers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, r, tt.user, tt.method, tt.path, tt.body)
			if status != tt.wantStatus || env.Error == nil || env.Error.Code != string(tt.wantCode) {
				t.Fatalf("got %d %+v, want %d %s", status, env.Error, tt.wantStatus, tt.wantCode)
			}
		})
	}
}
