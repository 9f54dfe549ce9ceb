package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding a user's active token id
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ModuleQuestionsKey returns the cache key for a module's full question set
func (r *CacheKeyStruct) ModuleQuestionsKey(moduleID string) string {
	return fmt.Sprintf("module:%s:questions", moduleID)
}

// ModuleListKey returns the cache key for the module catalogue
func (r *CacheKeyStruct) ModuleListKey() string {
	return "modules:list"
}

// PlanListKey returns the cache key for the plan catalogue
func (r *CacheKeyStruct) PlanListKey() string {
	return "plans:list"
}

// PracticeRunKey returns the cache key for a practice run's engine state
func (r *CacheKeyStruct) PracticeRunKey(runID string) string {
	return fmt.Sprintf("practice:run:%s", runID)
}

var CacheKey = NewCacheKeyStruct()
