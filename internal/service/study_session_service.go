package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	statsRecentAttempts = 5
	statsRecentSessions = 3
)

// StudySessions is the study session storage StudySessionService needs.
// Reads and updates are scoped to the owning user.
type StudySessions interface {
	Create(ctx context.Context, s *model.StudySession) error
	GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.StudySession, error)
	Update(ctx context.Context, id uuid.UUID, userID int, req model.UpdateSessionRequest) (*model.StudySession, error)
	ListByUser(ctx context.Context, userID, limit int) ([]model.StudySession, error)
}

// Attempts is the attempt storage StudySessionService needs. Create must
// fail with repository.ErrDuplicateAttempt for a second attempt at the same
// question in one session.
type Attempts interface {
	Create(ctx context.Context, a *model.Attempt) error
	ExistsForSession(ctx context.Context, sessionID uuid.UUID, questionID int64) (bool, error)
	ListRecentByUser(ctx context.Context, userID, limit int) ([]model.Attempt, error)
	CountByUser(ctx context.Context, userID int) (total, correct int, err error)
	ModuleBreakdown(ctx context.Context, userID int) ([]model.ModuleStats, error)
}

// QuestionLookup loads a single question with its answer key.
type QuestionLookup interface {
	Lookup(ctx context.Context, id int64) (*model.Question, error)
}

// StudySessionService records study sessions and answer attempts.
type StudySessionService struct {
	sessionRepo StudySessions
	attemptRepo Attempts
	questions   QuestionLookup
	entitlement ModuleGate
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewStudySessionService creates a new StudySessionService.
func NewStudySessionService(
	sessionRepo StudySessions,
	attemptRepo Attempts,
	questions QuestionLookup,
	entitlement ModuleGate,
	rdb *redis.Client,
	log zerolog.Logger,
) *StudySessionService {
	return &StudySessionService{
		sessionRepo: sessionRepo,
		attemptRepo: attemptRepo,
		questions:   questions,
		entitlement: entitlement,
		rdb:         rdb,
		log:         log.With().Str("component", "study_session_service").Logger(),
	}
}

// StartSession opens a study session, optionally scoped to a module.
func (s *StudySessionService) StartSession(ctx context.Context, userID int, moduleID *string) (*model.StudySession, error) {
	if moduleID != nil && *moduleID == model.AllModules {
		moduleID = nil
	}
	if moduleID != nil {
		if _, err := s.entitlement.CheckModule(ctx, userID, *moduleID); err != nil {
			return nil, err
		}
	}

	sess := &model.StudySession{UserID: userID, ModuleID: moduleID}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// SubmitAnswer grades and records one answer, revealing the correct option.
// Entitlement to the question's module is checked again on every submission.
func (s *StudySessionService) SubmitAnswer(ctx context.Context, userID int, req model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	q, err := s.questions.Lookup(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.entitlement.CheckModule(ctx, userID, q.ModuleID); err != nil {
		return nil, err
	}

	selected := q.Option(req.SelectedOptionID)
	if selected == nil {
		return nil, ErrOptionMismatch
	}
	correct := q.CorrectOption()
	if correct == nil {
		return nil, fmt.Errorf("question %d has no correct option", q.ID)
	}

	if req.SessionID != nil {
		if _, err := s.sessionRepo.GetByID(ctx, *req.SessionID, userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		exists, err := s.attemptRepo.ExistsForSession(ctx, *req.SessionID, q.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrAlreadyAnswered
		}
	}

	attempt := model.Attempt{
		UserID:           userID,
		QuestionID:       q.ID,
		SelectedOptionID: selected.ID,
		IsCorrect:        selected.IsCorrect,
		SessionID:        req.SessionID,
	}
	if err := s.attemptRepo.Create(ctx, &attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicateAttempt) {
			return nil, ErrAlreadyAnswered
		}
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	return &model.SubmitAnswerResponse{
		Attempt:         attempt,
		IsCorrect:       attempt.IsCorrect,
		CorrectOptionID: correct.ID,
		Explanation:     q.Explanation,
		SlideReference:  q.SlideReference,
	}, nil
}

// UpdateSession patches a session owned by the user.
func (s *StudySessionService) UpdateSession(ctx context.Context, userID int, id uuid.UUID, req model.UpdateSessionRequest) (*model.StudySession, error) {
	sess, err := s.sessionRepo.Update(ctx, id, userID, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// ListSessions returns the user's most recent sessions.
func (s *StudySessionService) ListSessions(ctx context.Context, userID, limit int) ([]model.StudySession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	sessions, err := s.sessionRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []model.StudySession{}
	}
	return sessions, nil
}

// Stats summarises a user's practice history.
func (s *StudySessionService) Stats(ctx context.Context, userID int) (*model.UserStats, error) {
	total, correct, err := s.attemptRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	recent, err := s.attemptRepo.ListRecentByUser(ctx, userID, statsRecentAttempts)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	sessions, err := s.sessionRepo.ListByUser(ctx, userID, statsRecentSessions)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	modules, err := s.attemptRepo.ModuleBreakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("module breakdown: %w", err)
	}

	if recent == nil {
		recent = []model.Attempt{}
	}
	if sessions == nil {
		sessions = []model.StudySession{}
	}
	if modules == nil {
		modules = []model.ModuleStats{}
	}
	for i := range modules {
		modules[i].Accuracy = accuracy(modules[i].Correct, modules[i].Attempted)
	}

	return &model.UserStats{
		TotalAttempted: total,
		TotalCorrect:   correct,
		Accuracy:       accuracy(correct, total),
		RecentAttempts: recent,
		RecentSessions: sessions,
		Modules:        modules,
	}, nil
}

// ─── Practice run recorder ──────────────────────────────────────────────

// Open starts the study session backing a practice run.
func (s *StudySessionService) Open(ctx context.Context, userID int, moduleID string) (uuid.UUID, error) {
	var mod *string
	if moduleID != model.AllModules {
		mod = &moduleID
	}
	sess := &model.StudySession{UserID: userID, ModuleID: mod}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	return sess.ID, nil
}

// QueueAttempt hands an attempt to the attempt worker.
func (s *StudySessionService) QueueAttempt(ctx context.Context, job model.AttemptJob) error {
	return s.enqueue(ctx, config.WorkerKey.PersistAttemptsQueue, job)
}

// QueueEnd hands a session close to the session close worker.
func (s *StudySessionService) QueueEnd(ctx context.Context, job model.SessionEndJob) error {
	return s.enqueue(ctx, config.WorkerKey.PersistSessionEndQueue, job)
}

func (s *StudySessionService) enqueue(ctx context.Context, queue string, job any) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.rdb.RPush(ctx, queue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("queue", queue).Msg("Failed to enqueue job")
		return err
	}
	return nil
}

func accuracy(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}
