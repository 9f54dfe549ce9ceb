package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/rs/zerolog"
)

type memSessions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.StudySession
}

func (m *memSessions) Create(_ context.Context, s *model.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.StartedAt = time.Now()
	m.rows[s.ID] = *s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id uuid.UUID, userID int) (*model.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (m *memSessions) Update(_ context.Context, id uuid.UUID, userID int, req model.UpdateSessionRequest) (*model.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	if req.EndedAt != nil {
		s.EndedAt = req.EndedAt
	}
	if req.QuestionsAttempted != nil {
		s.QuestionsAttempted = *req.QuestionsAttempted
	}
	if req.CorrectAnswers != nil {
		s.CorrectAnswers = *req.CorrectAnswers
	}
	m.rows[id] = s
	return &s, nil
}

func (m *memSessions) ListByUser(context.Context, int, int) ([]model.StudySession, error) {
	return nil, nil
}

// memAttempts enforces one attempt per question per session the way the
// unique index does. staleExists makes ExistsForSession miss, as it would
// for a concurrent submit that checked before the other committed.
type memAttempts struct {
	mu          sync.Mutex
	rows        []model.Attempt
	staleExists bool
}

func (m *memAttempts) Create(_ context.Context, a *model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.SessionID != nil {
		for _, r := range m.rows {
			if r.SessionID != nil && *r.SessionID == *a.SessionID && r.QuestionID == a.QuestionID {
				return repository.ErrDuplicateAttempt
			}
		}
	}
	a.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAttempts) ExistsForSession(_ context.Context, sessionID uuid.UUID, questionID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleExists {
		return false, nil
	}
	for _, r := range m.rows {
		if r.SessionID != nil && *r.SessionID == sessionID && r.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAttempts) ListRecentByUser(context.Context, int, int) ([]model.Attempt, error) {
	return nil, nil
}

func (m *memAttempts) CountByUser(context.Context, int) (int, int, error) { return 0, 0, nil }

func (m *memAttempts) ModuleBreakdown(context.Context, int) ([]model.ModuleStats, error) {
	return nil, nil
}

type questionMap map[int64]*model.Question

func (q questionMap) Lookup(_ context.Context, id int64) (*model.Question, error) {
	if found, ok := q[id]; ok {
		return found, nil
	}
	return nil, ErrQuestionNotFound
}

type sessionFixture struct {
	svc      *StudySessionService
	sessions *memSessions
	attempts *memAttempts
	gate     *fakeGate
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessions: &memSessions{rows: make(map[uuid.UUID]model.StudySession)},
		attempts: &memAttempts{},
		gate:     &fakeGate{},
	}
	questions := questionMap{
		7: {
			ID:             7,
			Text:           "Which artery supplies the SA node in most people?",
			ModuleID:       "cardiology",
			Explanation:    "The SA nodal artery usually arises from the RCA.",
			SlideReference: "Coronary circulation, slide 12",
			Options: []model.Option{
				{ID: 70, QuestionID: 7, Text: "Right coronary artery", IsCorrect: true},
				{ID: 71, QuestionID: 7, Text: "Circumflex artery"},
			},
		},
	}
	f.svc = NewStudySessionService(f.sessions, f.attempts, questions, f.gate, nil, zerolog.Nop())
	return f
}

func (f *sessionFixture) open(t *testing.T, userID int) uuid.UUID {
	t.Helper()
	sess, err := f.svc.StartSession(context.Background(), userID, nil)
	if err != nil {
		t.Fatal(err)
	}
	return sess.ID
}

func TestSubmitAnswerRevealsCorrectOption(t *testing.T) {
	f := newSessionFixture()
	sid := f.open(t, 1)

	res, err := f.svc.SubmitAnswer(context.Background(), 1, model.SubmitAnswerRequest{
		QuestionID: 7, SelectedOptionID: 71, SessionID: &sid,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsCorrect || res.CorrectOptionID != 70 {
		t.Fatalf("graded %+v", res)
	}
	if res.Explanation == "" || res.SlideReference != "Coronary circulation, slide 12" {
		t.Fatalf("explanation %q reference %q", res.Explanation, res.SlideReference)
	}
	if len(f.attempts.rows) != 1 || *f.attempts.rows[0].SessionID != sid || f.attempts.rows[0].SelectedOptionID != 71 {
		t.Fatalf("stored %+v", f.attempts.rows)
	}
}

func TestSubmitAnswerOncePerSession(t *testing.T) {
	tests := []struct {
		name  string
		stale bool
	}{
		{"checked before insert", false},
		{"caught by the store", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			f.attempts.staleExists = tt.stale
			sid := f.open(t, 1)
			req := model.SubmitAnswerRequest{QuestionID: 7, SelectedOptionID: 70, SessionID: &sid}

			if _, err := f.svc.SubmitAnswer(context.Background(), 1, req); err != nil {
				t.Fatal(err)
			}
			req.SelectedOptionID = 71
			if _, err := f.svc.SubmitAnswer(context.Background(), 1, req); !errors.Is(err, ErrAlreadyAnswered) {
				t.Fatalf("second submit err = %v, want ErrAlreadyAnswered", err)
			}
			if len(f.attempts.rows) != 1 || !f.attempts.rows[0].IsCorrect {
				t.Fatalf("stored %+v", f.attempts.rows)
			}
		})
	}
}

func TestSubmitAnswerWithoutSessionIsNotDeduplicated(t *testing.T) {
	f := newSessionFixture()
	req := model.SubmitAnswerRequest{QuestionID: 7, SelectedOptionID: 70}
	for i := 0; i < 2; i++ {
		if _, err := f.svc.SubmitAnswer(context.Background(), 1, req); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if len(f.attempts.rows) != 2 {
		t.Fatalf("%d attempts stored, want 2", len(f.attempts.rows))
	}
}

func TestSubmitAnswerRejects(t *testing.T) {
	f := newSessionFixture()
	foreign := f.open(t, 2)

	tests := []struct {
		name    string
		req     model.SubmitAnswerRequest
		gateErr error
		want    error
	}{
		{"unknown question", model.SubmitAnswerRequest{QuestionID: 99, SelectedOptionID: 70}, nil, ErrQuestionNotFound},
		{"option of another question", model.SubmitAnswerRequest{QuestionID: 7, SelectedOptionID: 80}, nil, ErrOptionMismatch},
		{"premium module", model.SubmitAnswerRequest{QuestionID: 7, SelectedOptionID: 70}, ErrPremiumRequired, ErrPremiumRequired},
		{"session of another user", model.SubmitAnswerRequest{QuestionID: 7, SelectedOptionID: 70, SessionID: &foreign}, nil, ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.gate.err = tt.gateErr
			if _, err := f.svc.SubmitAnswer(context.Background(), 1, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if len(f.attempts.rows) != 0 {
		t.Fatalf("rejected submits stored %+v", f.attempts.rows)
	}
}

func TestUpdateSessionOwnerOnly(t *testing.T) {
	f := newSessionFixture()
	sid := f.open(t, 1)
	ended := time.Now()
	n := 4

	if _, err := f.svc.UpdateSession(context.Background(), 2, sid, model.UpdateSessionRequest{EndedAt: &ended, QuestionsAttempted: &n}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign update err = %v, want ErrSessionNotFound", err)
	}
	if row := f.sessions.rows[sid]; row.EndedAt != nil || row.QuestionsAttempted != 0 {
		t.Fatalf("foreign update changed the session: %+v", row)
	}

	got, err := f.svc.UpdateSession(context.Background(), 1, sid, model.UpdateSessionRequest{EndedAt: &ended, QuestionsAttempted: &n})
	if err != nil {
		t.Fatal(err)
	}
	if got.EndedAt == nil || got.QuestionsAttempted != 4 {
		t.Fatalf("updated %+v", got)
	}
}
