package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const planListTTL = time.Hour

// PlanService serves the subscription plan catalogue.
type PlanService struct {
	planRepo *repository.PlanRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(planRepo *repository.PlanRepository, rdb *redis.Client, log zerolog.Logger) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "plan_service").Logger(),
	}
}

// List returns all plans, cheapest first.
func (s *PlanService) List(ctx context.Context) ([]model.Plan, error) {
	key := config.CacheKey.PlanListKey()
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var plans []model.Plan
		if err := json.Unmarshal(raw, &plans); err == nil {
			return plans, nil
		}
	}

	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	if plans == nil {
		plans = []model.Plan{}
	}

	if data, err := json.Marshal(plans); err == nil {
		if err := s.rdb.Set(ctx, key, data, planListTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache plan list")
		}
	}
	return plans, nil
}
