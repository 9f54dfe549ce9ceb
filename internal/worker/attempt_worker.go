package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second
)

// AttemptWorker drains the attempts queue filled by practice runs and
// writes attempts to PostgreSQL in batches.
type AttemptWorker struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	attempts *repository.AttemptRepository
	log      zerolog.Logger
}

// NewAttemptWorker creates a new AttemptWorker.
func NewAttemptWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		pool:     pool,
		rdb:      rdb,
		attempts: repository.NewAttemptRepository(pool),
		log:      log.With().Str("component", "attempt_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds.
func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptWorker started")

	batch := make([]*model.AttemptJob, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(flushCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistAttemptsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.AttemptJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with row-by-row fallback
// ----------------------------------------------------------------

func (w *AttemptWorker) flushSafe(ctx context.Context, batch []*model.AttemptJob) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk attempt insert failed, using fallback")

		var requeue []any
		for _, job := range batch {
			err := w.persistSingle(ctx, job)
			switch {
			case err == nil:
			case errors.Is(err, repository.ErrDuplicateAttempt):
				w.log.Debug().
					Int64("question_id", job.QuestionID).
					Msg("Attempt already stored for this session, dropping")
			case isPermanent(err):
				w.log.Error().Err(err).
					Int("user_id", job.UserID).
					Int64("question_id", job.QuestionID).
					Msg("Dropping attempt that can never be stored")
			default:
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(job)
				requeue = append(requeue, raw)
			}
		}
		w.requeue(ctx, requeue)
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Attempts flushed")
}

// bulkInsert copies the batch into attempts and bumps the counters of
// every touched study session, all in one transaction.
func (w *AttemptWorker) bulkInsert(ctx context.Context, batch []*model.AttemptJob) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, len(batch))
	type tally struct{ attempted, correct int }
	sessions := make(map[uuid.UUID]*tally)
	owners := make(map[uuid.UUID]int)

	for i, job := range batch {
		rows[i] = []any{job.UserID, job.QuestionID, job.SelectedOptionID, job.IsCorrect, job.SessionID, job.AttemptedAt}
		if job.SessionID == nil {
			continue
		}
		t, ok := sessions[*job.SessionID]
		if !ok {
			t = &tally{}
			sessions[*job.SessionID] = t
			owners[*job.SessionID] = job.UserID
		}
		t.attempted++
		if job.IsCorrect {
			t.correct++
		}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"attempts"},
		[]string{"user_id", "question_id", "selected_option_id", "is_correct", "session_id", "attempted_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return err
	}

	if len(sessions) > 0 {
		ids := make([]uuid.UUID, 0, len(sessions))
		users := make([]int, 0, len(sessions))
		attempted := make([]int, 0, len(sessions))
		correct := make([]int, 0, len(sessions))
		for id, t := range sessions {
			ids = append(ids, id)
			users = append(users, owners[id])
			attempted = append(attempted, t.attempted)
			correct = append(correct, t.correct)
		}

		_, err = tx.Exec(ctx, `
			UPDATE study_sessions AS s
			SET questions_attempted = s.questions_attempted + t.attempted,
			    correct_answers = s.correct_answers + t.correct
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::int[],
				$4::int[]
			) AS t (id, user_id, attempted, correct)
			WHERE s.id = t.id
			  AND s.user_id = t.user_id
		`, ids, users, attempted, correct)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (w *AttemptWorker) persistSingle(ctx context.Context, job *model.AttemptJob) error {
	a := &model.Attempt{
		UserID:           job.UserID,
		QuestionID:       job.QuestionID,
		SelectedOptionID: job.SelectedOptionID,
		IsCorrect:        job.IsCorrect,
		SessionID:        job.SessionID,
		AttemptedAt:      job.AttemptedAt,
	}
	return w.attempts.Create(ctx, a)
}

func (w *AttemptWorker) requeue(ctx context.Context, raws []any) {
	if len(raws) == 0 {
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raws...).Err(); err != nil {
		w.log.Error().Err(err).Int("count", len(raws)).Msg("Requeue failed, attempts lost")
	}
}

// isPermanent reports errors a retry cannot fix, such as a question that
// was deleted while its attempt sat in the queue or a session that already
// holds an attempt for the question.
func isPermanent(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "23503", "23502", "22P02", "23505":
		return true
	}
	return false
}
