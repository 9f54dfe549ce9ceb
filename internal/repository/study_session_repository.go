package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

// StudySessionRepository handles study session data access.
type StudySessionRepository struct {
	pool *pgxpool.Pool
}

// NewStudySessionRepository creates a new StudySessionRepository.
func NewStudySessionRepository(pool *pgxpool.Pool) *StudySessionRepository {
	return &StudySessionRepository{pool: pool}
}

// Create opens a study session.
func (r *StudySessionRepository) Create(ctx context.Context, s *model.StudySession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO study_sessions (user_id, module_id)
		 VALUES ($1, $2)
		 RETURNING id, started_at`,
		s.UserID, s.ModuleID,
	).Scan(&s.ID, &s.StartedAt)
}

// GetByID retrieves a session owned by userID.
func (r *StudySessionRepository) GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.StudySession, error) {
	s := &model.StudySession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, module_id, started_at, ended_at, questions_attempted, correct_answers
		 FROM study_sessions WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&s.ID, &s.UserID, &s.ModuleID, &s.StartedAt, &s.EndedAt, &s.QuestionsAttempted, &s.CorrectAnswers)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update patches a session owned by userID and returns the new row.
func (r *StudySessionRepository) Update(ctx context.Context, id uuid.UUID, userID int, req model.UpdateSessionRequest) (*model.StudySession, error) {
	s := &model.StudySession{}
	err := r.pool.QueryRow(ctx,
		`UPDATE study_sessions SET
		     ended_at = COALESCE($3, ended_at),
		     questions_attempted = COALESCE($4, questions_attempted),
		     correct_answers = COALESCE($5, correct_answers)
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, module_id, started_at, ended_at, questions_attempted, correct_answers`,
		id, userID, req.EndedAt, req.QuestionsAttempted, req.CorrectAnswers,
	).Scan(&s.ID, &s.UserID, &s.ModuleID, &s.StartedAt, &s.EndedAt, &s.QuestionsAttempted, &s.CorrectAnswers)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// End stamps ended_at if the session is still open.
func (r *StudySessionRepository) End(ctx context.Context, id uuid.UUID, userID int, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE study_sessions SET ended_at = $1
		 WHERE id = $2 AND user_id = $3 AND ended_at IS NULL`,
		at, id, userID,
	)
	return err
}

// ListByUser retrieves a user's most recent sessions.
func (r *StudySessionRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.StudySession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, module_id, started_at, ended_at, questions_attempted, correct_answers
		 FROM study_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.StudySession
	for rows.Next() {
		var s model.StudySession
		if err := rows.Scan(&s.ID, &s.UserID, &s.ModuleID, &s.StartedAt, &s.EndedAt, &s.QuestionsAttempted, &s.CorrectAnswers); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
