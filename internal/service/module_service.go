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

const moduleListTTL = 10 * time.Minute

// ModuleService lists the module catalogue with per-user lock state.
type ModuleService struct {
	moduleRepo  *repository.ModuleRepository
	entitlement *EntitlementService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewModuleService creates a new ModuleService.
func NewModuleService(moduleRepo *repository.ModuleRepository, entitlement *EntitlementService, rdb *redis.Client, log zerolog.Logger) *ModuleService {
	return &ModuleService{
		moduleRepo:  moduleRepo,
		entitlement: entitlement,
		rdb:         rdb,
		log:         log.With().Str("component", "module_service").Logger(),
	}
}

// ListForUser returns every module, marking premium ones locked for free users.
func (s *ModuleService) ListForUser(ctx context.Context, userID int) ([]model.ModuleForUser, error) {
	modules, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	premium, err := s.entitlement.HasPremium(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ModuleForUser, len(modules))
	for i, m := range modules {
		out[i] = model.ModuleForUser{Module: m, Locked: m.IsPremium && !premium}
	}
	return out, nil
}

func (s *ModuleService) list(ctx context.Context) ([]model.Module, error) {
	key := config.CacheKey.ModuleListKey()

	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var modules []model.Module
		if err := json.Unmarshal(raw, &modules); err == nil {
			return modules, nil
		}
		s.log.Warn().Msg("Discarding malformed module list cache")
	}

	modules, err := s.moduleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if modules == nil {
		modules = []model.Module{}
	}

	if data, err := json.Marshal(modules); err == nil {
		if err := s.rdb.Set(ctx, key, data, moduleListTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache module list")
		}
	}
	return modules, nil
}

// Invalidate drops the cached catalogue.
func (s *ModuleService) Invalidate(ctx context.Context) error {
	return s.rdb.Del(ctx, config.CacheKey.ModuleListKey()).Err()
}
