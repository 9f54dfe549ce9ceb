package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionCloseWorker stamps ended_at on study sessions whose practice run
// finished or was abandoned.
type SessionCloseWorker struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	sessions *repository.StudySessionRepository
	log      zerolog.Logger
}

// NewSessionCloseWorker creates a new SessionCloseWorker.
func NewSessionCloseWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SessionCloseWorker {
	return &SessionCloseWorker{
		pool:     pool,
		rdb:      rdb,
		sessions: repository.NewStudySessionRepository(pool),
		log:      log.With().Str("component", "session_close_worker").Logger(),
	}
}

// Start runs until ctx is cancelled, then flushes what it holds.
func (w *SessionCloseWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SessionCloseWorker started")

	batch := make([]*model.SessionEndJob, 0, BatchSize)
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
			item, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistSessionEndQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.SessionEndJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

func (w *SessionCloseWorker) flushSafe(ctx context.Context, batch []*model.SessionEndJob) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkClose(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk session close failed, using fallback")

		var requeue []any
		for _, job := range batch {
			if err := w.sessions.End(ctx, job.SessionID, job.UserID, job.EndedAt); err != nil {
				w.log.Error().Err(err).Str("session_id", job.SessionID.String()).Msg("End failed, requeueing")
				raw, _ := json.Marshal(job)
				requeue = append(requeue, raw)
			}
		}
		if len(requeue) > 0 {
			if err := w.rdb.RPush(ctx, config.WorkerKey.PersistSessionEndQueue, requeue...).Err(); err != nil {
				w.log.Error().Err(err).Int("count", len(requeue)).Msg("Requeue failed")
			}
		}
	}
}

// bulkClose ends every session in the batch that is still open.
func (w *SessionCloseWorker) bulkClose(ctx context.Context, batch []*model.SessionEndJob) error {
	n := len(batch)
	ids := make([]uuid.UUID, 0, n)
	users := make([]int, 0, n)
	endedAts := make([]time.Time, 0, n)

	for _, job := range batch {
		ids = append(ids, job.SessionID)
		users = append(users, job.UserID)
		endedAts = append(endedAts, job.EndedAt)
	}

	_, err := w.pool.Exec(ctx, `
		UPDATE study_sessions AS s
		SET ended_at = t.ended_at
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::timestamptz[]
		) AS t (id, user_id, ended_at)
		WHERE s.id = t.id
		  AND s.user_id = t.user_id
		  AND s.ended_at IS NULL
	`, ids, users, endedAts)
	return err
}
