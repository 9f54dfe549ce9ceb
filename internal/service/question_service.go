package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/quiz"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxQuestionLimit caps a single fetch.
const maxQuestionLimit = 500

// QuestionService serves module-scoped question sets. Full module sets are
// cached in Redis; the "all" selector always reads through to PostgreSQL
// because its contents depend on the caller's subscription.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	moduleRepo   *repository.ModuleRepository
	entitlement  *EntitlementService
	rdb          *redis.Client
	ttl          time.Duration
	defaultLimit int
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	moduleRepo *repository.ModuleRepository,
	entitlement *EntitlementService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		moduleRepo:   moduleRepo,
		entitlement:  entitlement,
		rdb:          rdb,
		ttl:          cfg.QuestionCacheTTL,
		defaultLimit: cfg.DefaultQuestionLimit,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// List returns sanitised questions of a module (or "all") the user may open.
func (s *QuestionService) List(ctx context.Context, userID int, moduleID string, limit int) ([]model.QuestionForUser, error) {
	questions, err := s.load(ctx, userID, moduleID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]model.QuestionForUser, len(questions))
	for i := range questions {
		out[i] = questions[i].ForUser()
	}
	return out, nil
}

// Get returns one sanitised question after checking the caller may open its module.
func (s *QuestionService) Get(ctx context.Context, userID int, id int64) (*model.QuestionForUser, error) {
	q, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.entitlement.CheckModule(ctx, userID, q.ModuleID); err != nil {
		return nil, err
	}
	out := q.ForUser()
	return &out, nil
}

// Lookup returns a question with its correctness data. Server-side use only.
func (s *QuestionService) Lookup(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// QuizQuestions fetches a question set ready for the quiz engine. Entitlement
// errors pass through; any other failure is reported as ErrQuestionsUnavailable.
func (s *QuestionService) QuizQuestions(ctx context.Context, userID int, moduleID string, limit int) ([]quiz.Question, error) {
	questions, err := s.load(ctx, userID, moduleID, limit)
	if err != nil {
		if errors.Is(err, ErrModuleNotFound) || errors.Is(err, ErrPremiumRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrQuestionsUnavailable, err)
	}

	out := make([]quiz.Question, len(questions))
	for i := range questions {
		out[i] = questions[i].ToQuiz()
	}
	return out, nil
}

func (s *QuestionService) load(ctx context.Context, userID int, moduleID string, limit int) ([]model.Question, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > maxQuestionLimit {
		limit = maxQuestionLimit
	}

	if moduleID == model.AllModules {
		premium, err := s.entitlement.HasPremium(ctx, userID)
		if err != nil {
			return nil, err
		}
		if limit == 0 {
			limit = s.defaultLimit
		}
		return s.questionRepo.ListAll(ctx, premium, limit)
	}

	if _, err := s.entitlement.CheckModule(ctx, userID, moduleID); err != nil {
		return nil, err
	}

	questions, err := s.moduleQuestions(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(questions) {
		questions = questions[:limit]
	}
	return questions, nil
}

// moduleQuestions reads a module's full set from the cache, falling back to
// PostgreSQL and re-populating the cache on a miss.
func (s *QuestionService) moduleQuestions(ctx context.Context, moduleID string) ([]model.Question, error) {
	key := config.CacheKey.ModuleQuestionsKey(moduleID)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var questions []model.Question
		if err := json.Unmarshal(data, &questions); err == nil {
			return questions, nil
		}
		s.log.Warn().Str("module_id", moduleID).Msg("Discarding malformed question cache")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("module_id", moduleID).Msg("Question cache unavailable, reading from database")
	}

	return s.warm(ctx, moduleID)
}

func (s *QuestionService) warm(ctx context.Context, moduleID string) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByModule(ctx, moduleID, 0)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}

	data, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ModuleQuestionsKey(moduleID), data, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("module_id", moduleID).Msg("Failed to cache questions")
	}
	return questions, nil
}

// WarmModuleCache reloads a module's question set into Redis.
func (s *QuestionService) WarmModuleCache(ctx context.Context, moduleID string) error {
	questions, err := s.warm(ctx, moduleID)
	if err != nil {
		return err
	}
	s.log.Debug().
		Str("module_id", moduleID).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// InvalidateModule drops a module's cached question set and the catalogue.
// It is a no-op without a Redis client, as in offline imports.
func (s *QuestionService) InvalidateModule(ctx context.Context, moduleID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx,
		config.CacheKey.ModuleQuestionsKey(moduleID),
		config.CacheKey.ModuleListKey(),
	).Err()
}

// PrewarmAllCaches loads every module's questions into Redis on startup.
func (s *QuestionService) PrewarmAllCaches(ctx context.Context) error {
	modules, err := s.moduleRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}

	if len(modules) == 0 {
		s.log.Info().Msg("No modules to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(modules)).Msg("Prewarming module questions...")

	warmed := 0
	for _, m := range modules {
		if err := s.WarmModuleCache(ctx, m.ID); err != nil {
			s.log.Warn().
				Err(err).
				Str("module_id", m.ID).
				Msg("Failed to warm module, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(modules)).
		Msg("Prewarming complete")
	return nil
}

// ImportModule upserts a module and replaces its question bank.
func (s *QuestionService) ImportModule(ctx context.Context, m *model.Module, questions []model.ImportQuestion) (int, error) {
	if m.ID == model.AllModules {
		return 0, fmt.Errorf("%w: %q is reserved", ErrInvalidQuestionBank, m.ID)
	}
	for i, q := range questions {
		if err := validateImport(q); err != nil {
			return 0, fmt.Errorf("%w: question %d: %v", ErrInvalidQuestionBank, i+1, err)
		}
	}

	if err := s.moduleRepo.Upsert(ctx, m); err != nil {
		return 0, fmt.Errorf("upsert module: %w", err)
	}
	n, err := s.questionRepo.ReplaceModule(ctx, m.ID, questions)
	if err != nil {
		return 0, err
	}

	if err := s.InvalidateModule(ctx, m.ID); err != nil {
		s.log.Warn().Err(err).Str("module_id", m.ID).Msg("Failed to invalidate caches after import")
	}
	s.log.Info().Str("module_id", m.ID).Int("questions", n).Msg("Module imported")
	return n, nil
}

func validateImport(q model.ImportQuestion) error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("empty text")
	}
	if len(q.Options) < 2 {
		return errors.New("fewer than two options")
	}
	correct := 0
	for _, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			return errors.New("empty option")
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%d correct options, want exactly one", correct)
	}
	switch q.Difficulty {
	case "", model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	return nil
}
