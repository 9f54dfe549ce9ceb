package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

// ErrDuplicateAttempt is returned when a question already has an attempt in
// the same study session.
var ErrDuplicateAttempt = errors.New("question already attempted in this session")

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create records an attempt and, when it belongs to a study session,
// bumps that session's counters in the same transaction. A zero
// AttemptedAt is stamped with the current time. A second attempt for the
// same session and question fails with ErrDuplicateAttempt and leaves the
// counters alone.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (user_id, question_id, selected_option_id, is_correct, session_id, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.UserID, a.QuestionID, a.SelectedOptionID, a.IsCorrect, a.SessionID, a.AttemptedAt,
	).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAttempt
		}
		return err
	}

	if a.SessionID != nil {
		correct := 0
		if a.IsCorrect {
			correct = 1
		}
		_, err = tx.Exec(ctx,
			`UPDATE study_sessions
			 SET questions_attempted = questions_attempted + 1,
			     correct_answers = correct_answers + $1
			 WHERE id = $2 AND user_id = $3`,
			correct, *a.SessionID, a.UserID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListRecentByUser retrieves a user's most recent attempts.
func (r *AttemptRepository) ListRecentByUser(ctx context.Context, userID, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, question_id, selected_option_id, is_correct, session_id, attempted_at
		 FROM attempts WHERE user_id = $1
		 ORDER BY attempted_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.SelectedOptionID, &a.IsCorrect, &a.SessionID, &a.AttemptedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CountByUser returns how many attempts a user made and how many were correct.
func (r *AttemptRepository) CountByUser(ctx context.Context, userID int) (total, correct int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_correct)
		 FROM attempts WHERE user_id = $1`, userID,
	).Scan(&total, &correct)
	return total, correct, err
}

// ModuleBreakdown aggregates a user's attempts per module.
func (r *AttemptRepository) ModuleBreakdown(ctx context.Context, userID int) ([]model.ModuleStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.name, COUNT(a.id), COUNT(a.id) FILTER (WHERE a.is_correct)
		 FROM attempts a
		 JOIN questions q ON q.id = a.question_id
		 JOIN modules m ON m.id = q.module_id
		 WHERE a.user_id = $1
		 GROUP BY m.id, m.name
		 ORDER BY m.name`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.ModuleStats
	for rows.Next() {
		var s model.ModuleStats
		if err := rows.Scan(&s.ModuleID, &s.ModuleName, &s.Attempted, &s.Correct); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ExistsForSession reports whether a question was already attempted in a session.
func (r *AttemptRepository) ExistsForSession(ctx context.Context, sessionID uuid.UUID, questionID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attempts WHERE session_id = $1 AND question_id = $2)`,
		sessionID, questionID,
	).Scan(&exists)
	return exists, err
}
