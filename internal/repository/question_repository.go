package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question with its options.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT q.id, q.text, q.module_id, q.topic, q.explanation, q.slide_reference, q.difficulty, q.created_at, m.is_premium
		 FROM questions q
		 JOIN modules m ON m.id = q.module_id
		 WHERE q.id = $1`, id,
	).Scan(&q.ID, &q.Text, &q.ModuleID, &q.Topic, &q.Explanation, &q.SlideReference, &q.Difficulty, &q.CreatedAt, &q.Premium)
	if err != nil {
		return nil, err
	}

	qs := []model.Question{*q}
	if err := r.attachOptions(ctx, qs); err != nil {
		return nil, err
	}
	return &qs[0], nil
}

// ListByModule retrieves a module's questions in id order.
// A limit of 0 returns every question.
func (r *QuestionRepository) ListByModule(ctx context.Context, moduleID string, limit int) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT q.id, q.text, q.module_id, q.topic, q.explanation, q.slide_reference, q.difficulty, q.created_at, m.is_premium
		 FROM questions q
		 JOIN modules m ON m.id = q.module_id
		 WHERE q.module_id = $1
		 ORDER BY q.id
		 LIMIT NULLIF($2, 0)`, moduleID, limit)
}

// ListAll retrieves questions across modules. Premium modules are skipped
// unless includePremium is set.
func (r *QuestionRepository) ListAll(ctx context.Context, includePremium bool, limit int) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT q.id, q.text, q.module_id, q.topic, q.explanation, q.slide_reference, q.difficulty, q.created_at, m.is_premium
		 FROM questions q
		 JOIN modules m ON m.id = q.module_id
		 WHERE $1 OR NOT m.is_premium
		 ORDER BY q.id
		 LIMIT NULLIF($2, 0)`, includePremium, limit)
}

func (r *QuestionRepository) list(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.ModuleID, &q.Topic, &q.Explanation, &q.SlideReference, &q.Difficulty, &q.CreatedAt, &q.Premium); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachOptions(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// attachOptions loads options for all questions in one round trip.
func (r *QuestionRepository) attachOptions(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, len(questions))
	byID := make(map[int64]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		byID[q.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, text, is_correct
		 FROM options WHERE question_id = ANY($1)
		 ORDER BY question_id, id`, ids,
	)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return err
		}
		if i, ok := byID[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return rows.Err()
}

// ReplaceModule swaps a module's question bank in one transaction.
// Attempts against the old questions are removed with them.
func (r *QuestionRepository) ReplaceModule(ctx context.Context, moduleID string, questions []model.ImportQuestion) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE module_id = $1`, moduleID); err != nil {
		return 0, fmt.Errorf("clear module: %w", err)
	}

	for i, iq := range questions {
		if err := insertQuestion(ctx, tx, moduleID, iq); err != nil {
			return 0, fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(questions), nil
}

func insertQuestion(ctx context.Context, tx pgx.Tx, moduleID string, iq model.ImportQuestion) error {
	difficulty := iq.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}

	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO questions (text, module_id, topic, explanation, slide_reference, difficulty)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		iq.Text, moduleID, iq.Topic, iq.Explanation, iq.SlideReference, difficulty,
	).Scan(&id)
	if err != nil {
		return err
	}

	rows := make([][]any, len(iq.Options))
	for i, o := range iq.Options {
		rows[i] = []any{id, o.Text, o.IsCorrect}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"options"},
		[]string{"question_id", "text", "is_correct"},
		pgx.CopyFromRows(rows),
	)
	return err
}
