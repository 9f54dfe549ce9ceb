package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/quiz"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/rs/zerolog"
)

// QuestionSource supplies question sets for practice runs. It enforces
// entitlement itself.
type QuestionSource interface {
	QuizQuestions(ctx context.Context, userID int, moduleID string, limit int) ([]quiz.Question, error)
}

// ModuleGate re-checks module access on every answer. HasPremium covers
// premium questions drawn into mixed "all" runs.
type ModuleGate interface {
	CheckModule(ctx context.Context, userID int, moduleID string) (*model.Module, error)
	HasPremium(ctx context.Context, userID int) (bool, error)
}

// SessionRecorder persists the study session behind a run. Attempts and
// session ends are queued, not written inline.
type SessionRecorder interface {
	Open(ctx context.Context, userID int, moduleID string) (uuid.UUID, error)
	QueueAttempt(ctx context.Context, job model.AttemptJob) error
	QueueEnd(ctx context.Context, job model.SessionEndJob) error
}

// RunStore keeps practice runs between requests. Update applies fn to the
// latest stored run and writes the result atomically; an error from fn
// aborts the write.
type RunStore interface {
	Create(ctx context.Context, run *PracticeRun) error
	Get(ctx context.Context, id uuid.UUID) (*PracticeRun, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*PracticeRun) error) (*PracticeRun, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PracticeRun is the stored form of one practice run.
type PracticeRun struct {
	ID            uuid.UUID  `json:"id"`
	UserID        int        `json:"user_id"`
	ModuleID      string     `json:"module_id"`
	Limit         int        `json:"limit"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
	SessionClosed bool       `json:"session_closed"`
	Quiz          quiz.State `json:"quiz"`
	Reviewing     bool       `json:"reviewing"`
	ReviewIndex   int        `json:"review_index"`
	StartedAt     time.Time  `json:"started_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PracticeService drives quiz engine sessions on behalf of REST and
// WebSocket clients. Every intent loads the run, applies one engine
// operation and stores it again before any side effect is attempted.
type PracticeService struct {
	questions QuestionSource
	gate      ModuleGate
	recorder  SessionRecorder
	store     RunStore
	src       quiz.Source
	now       func() time.Time
	log       zerolog.Logger
}

// NewPracticeService creates a new PracticeService. A nil src shuffles
// with the global random source.
func NewPracticeService(
	questions QuestionSource,
	gate ModuleGate,
	recorder SessionRecorder,
	store RunStore,
	src quiz.Source,
	log zerolog.Logger,
) *PracticeService {
	return &PracticeService{
		questions: questions,
		gate:      gate,
		recorder:  recorder,
		store:     store,
		src:       src,
		now:       time.Now,
		log:       log.With().Str("component", "practice_service").Logger(),
	}
}

// Start fetches questions and opens a run.
func (s *PracticeService) Start(ctx context.Context, userID int, moduleID string, limit int) (*model.PracticeView, error) {
	questions, err := s.Fetch(ctx, userID, moduleID, limit)
	if err != nil {
		return nil, err
	}
	return s.Launch(ctx, userID, moduleID, limit, questions)
}

// Fetch loads the question set for a new run. It is split from Launch so
// streaming clients can discard superseded fetches.
func (s *PracticeService) Fetch(ctx context.Context, userID int, moduleID string, limit int) ([]quiz.Question, error) {
	return s.questions.QuizQuestions(ctx, userID, moduleID, limit)
}

// Launch opens a run over an already fetched question set.
func (s *PracticeService) Launch(ctx context.Context, userID int, moduleID string, limit int, questions []quiz.Question) (*model.PracticeView, error) {
	sess := quiz.New(questions, s.src)
	now := s.now()

	run := &PracticeRun{
		ID:        uuid.New(),
		UserID:    userID,
		ModuleID:  moduleID,
		Limit:     limit,
		Quiz:      sess.Snapshot(),
		StartedAt: now,
		UpdatedAt: now,
	}

	var warnings []string
	if sess.Len() > 0 {
		id, err := s.recorder.Open(ctx, userID, moduleID)
		if err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Str("module_id", moduleID).Msg("Failed to open study session")
			warnings = append(warnings, response.WarnSessionNotSaved)
		} else {
			run.SessionID = &id
		}
	}

	if err := s.store.Create(ctx, run); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("run_id", run.ID.String()).
		Int("user_id", userID).
		Str("module_id", moduleID).
		Int("questions", sess.Len()).
		Msg("Practice run started")

	return s.render(run, sess, true, warnings), nil
}

// Get renders a run without changing it.
func (s *PracticeService) Get(ctx context.Context, userID int, runID uuid.UUID) (*model.PracticeView, error) {
	run, err := s.owned(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	sess, err := quiz.Restore(run.Quiz, s.src)
	if err != nil {
		return nil, err
	}
	return s.render(run, sess, false, nil), nil
}

// Answer selects the option at a display position on the current question.
// Answers while reviewing, or to an answered question, change nothing.
func (s *PracticeService) Answer(ctx context.Context, userID int, runID uuid.UUID, position int) (*model.PracticeView, error) {
	run, err := s.owned(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.CheckModule(ctx, userID, run.ModuleID); err != nil {
		return nil, err
	}

	var (
		attempt  *quiz.Attempt
		finished bool
		premium  *bool
	)
	sess, run, err := s.mutate(ctx, userID, runID, func(run *PracticeRun, sess *quiz.Session) (bool, error) {
		attempt, finished = nil, false
		if run.Reviewing {
			return false, nil
		}
		if run.ModuleID == model.AllModules && sess.CurrentPremium() {
			if premium == nil {
				ok, err := s.gate.HasPremium(ctx, userID)
				if err != nil {
					return false, err
				}
				premium = &ok
			}
			if !*premium {
				return false, ErrPremiumRequired
			}
		}
		a, err := sess.SelectAnswer(position)
		if errors.Is(err, quiz.ErrNoQuestions) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if a == nil {
			return false, nil
		}
		attempt = a
		if sess.Completed() && !run.SessionClosed {
			run.SessionClosed = true
			finished = true
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	var warnings []string
	if attempt != nil {
		if w := s.recordAttempt(ctx, run, attempt); w != "" {
			warnings = append(warnings, w)
		}
	}
	if finished {
		if w := s.closeSession(ctx, run.UserID, run.SessionID); w != "" {
			warnings = append(warnings, w)
		}
	}
	return s.render(run, sess, attempt != nil, warnings), nil
}

// Navigate moves the run pointer, or the review pointer while reviewing.
func (s *PracticeService) Navigate(ctx context.Context, userID int, runID uuid.UUID, d quiz.Direction) (*model.PracticeView, error) {
	var moved bool
	sess, run, err := s.mutate(ctx, userID, runID, func(run *PracticeRun, sess *quiz.Session) (bool, error) {
		moved = false
		if run.Reviewing {
			r, err := sess.ResumeReview(run.ReviewIndex)
			if err != nil {
				run.Reviewing = false
				return true, nil
			}
			moved = r.Navigate(d)
			run.ReviewIndex = r.Index()
			return moved, nil
		}
		moved = sess.Navigate(d)
		return moved, nil
	})
	if err != nil {
		return nil, err
	}
	return s.render(run, sess, moved, nil), nil
}

// EnterReview switches the run to walking its incorrect answers. It fails
// with quiz.ErrNoIncorrectAnswers, leaving the run untouched, when there
// are none.
func (s *PracticeService) EnterReview(ctx context.Context, userID int, runID uuid.UUID) (*model.PracticeView, error) {
	var changed bool
	sess, run, err := s.mutate(ctx, userID, runID, func(run *PracticeRun, sess *quiz.Session) (bool, error) {
		changed = false
		if run.Reviewing {
			return false, nil
		}
		if _, err := sess.EnterReview(); err != nil {
			return false, err
		}
		run.Reviewing = true
		run.ReviewIndex = 0
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return s.render(run, sess, changed, nil), nil
}

// ExitReview returns to the question the run was on before reviewing.
func (s *PracticeService) ExitReview(ctx context.Context, userID int, runID uuid.UUID) (*model.PracticeView, error) {
	var changed bool
	sess, run, err := s.mutate(ctx, userID, runID, func(run *PracticeRun, _ *quiz.Session) (bool, error) {
		changed = run.Reviewing
		run.Reviewing = false
		run.ReviewIndex = 0
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	return s.render(run, sess, changed, nil), nil
}

// Restart re-fetches the question set and starts the run over with a new
// study session. Without confirmation it returns quiz.ErrRestartNotConfirmed
// and changes nothing.
func (s *PracticeService) Restart(ctx context.Context, userID int, runID uuid.UUID, confirmed bool) (*model.PracticeView, error) {
	current, err := s.owned(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, quiz.ErrRestartNotConfirmed
	}

	questions, err := s.questions.QuizQuestions(ctx, userID, current.ModuleID, current.Limit)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var sessionID *uuid.UUID
	if len(questions) > 0 {
		id, err := s.recorder.Open(ctx, userID, current.ModuleID)
		if err != nil {
			s.log.Warn().Err(err).Str("run_id", runID.String()).Msg("Failed to open study session on restart")
			warnings = append(warnings, response.WarnSessionNotSaved)
		} else {
			sessionID = &id
		}
	}

	var (
		previous      *uuid.UUID
		closePrevious bool
	)
	sess, run, err := s.mutate(ctx, userID, runID, func(run *PracticeRun, sess *quiz.Session) (bool, error) {
		if err := sess.Restart(questions, true); err != nil {
			return false, err
		}
		previous, closePrevious = run.SessionID, !run.SessionClosed
		run.SessionID = sessionID
		run.SessionClosed = false
		run.Reviewing = false
		run.ReviewIndex = 0
		return true, nil
	})
	if err != nil {
		s.closeSession(ctx, userID, sessionID)
		return nil, err
	}

	if closePrevious {
		if w := s.closeSession(ctx, userID, previous); w != "" {
			warnings = append(warnings, w)
		}
	}
	return s.render(run, sess, true, warnings), nil
}

// End discards a run and closes its study session if still open.
func (s *PracticeService) End(ctx context.Context, userID int, runID uuid.UUID) ([]string, error) {
	run, err := s.owned(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, runID); err != nil {
		return nil, err
	}

	var warnings []string
	if !run.SessionClosed {
		if w := s.closeSession(ctx, userID, run.SessionID); w != "" {
			warnings = append(warnings, w)
		}
	}
	s.log.Info().Str("run_id", runID.String()).Int("user_id", userID).Msg("Practice run ended")
	return warnings, nil
}

// owned loads a run, hiding runs of other users.
func (s *PracticeService) owned(ctx context.Context, userID int, runID uuid.UUID) (*PracticeRun, error) {
	run, err := s.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.UserID != userID {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// mutate restores the run's session, applies fn and stores the result.
// fn reports whether it changed anything; unchanged runs are still written
// so their expiry is refreshed.
func (s *PracticeService) mutate(
	ctx context.Context,
	userID int,
	runID uuid.UUID,
	fn func(run *PracticeRun, sess *quiz.Session) (bool, error),
) (*quiz.Session, *PracticeRun, error) {
	var sess *quiz.Session
	run, err := s.store.Update(ctx, runID, func(run *PracticeRun) error {
		if run.UserID != userID {
			return ErrRunNotFound
		}
		restored, err := quiz.Restore(run.Quiz, s.src)
		if err != nil {
			return err
		}
		changed, err := fn(run, restored)
		if err != nil {
			return err
		}
		if changed {
			run.Quiz = restored.Snapshot()
			run.UpdatedAt = s.now()
		}
		sess = restored
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, run, nil
}

// recordAttempt queues an attempt for persistence. A failure is returned
// as a warning; the answer itself stands.
func (s *PracticeService) recordAttempt(ctx context.Context, run *PracticeRun, a *quiz.Attempt) string {
	if run.SessionID == nil {
		return response.WarnAttemptNotSaved
	}
	err := s.recorder.QueueAttempt(ctx, model.AttemptJob{
		UserID:           run.UserID,
		SessionID:        run.SessionID,
		QuestionID:       a.QuestionID,
		SelectedOptionID: a.SelectedOptionID,
		IsCorrect:        a.Correct,
		AttemptedAt:      a.At,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("run_id", run.ID.String()).
			Int64("question_id", a.QuestionID).
			Msg("Failed to queue attempt")
		return response.WarnAttemptNotSaved
	}
	return ""
}

func (s *PracticeService) closeSession(ctx context.Context, userID int, sessionID *uuid.UUID) string {
	if sessionID == nil {
		return ""
	}
	err := s.recorder.QueueEnd(ctx, model.SessionEndJob{
		UserID:    userID,
		SessionID: *sessionID,
		EndedAt:   s.now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to queue session end")
		return response.WarnSessionNotSaved
	}
	return ""
}

func (s *PracticeService) render(run *PracticeRun, sess *quiz.Session, changed bool, warnings []string) *model.PracticeView {
	v := &model.PracticeView{
		RunID:    run.ID.String(),
		ModuleID: run.ModuleID,
		Phase:    sess.Phase(),
		Stats:    sess.Stats(),
		Changed:  changed,
		Warnings: warnings,
	}
	if run.SessionID != nil {
		v.SessionID = run.SessionID.String()
	}

	if run.Reviewing {
		if r, err := sess.ResumeReview(run.ReviewIndex); err == nil {
			v.Phase = quiz.PhaseReviewing
			if q, ok := r.Current(); ok {
				v.Question = &q
			}
			return v
		}
	}

	if q, ok := sess.Current(); ok {
		v.Question = &q
	}
	if res, ok := sess.Results(); ok {
		v.Results = &res
	}
	return v
}
