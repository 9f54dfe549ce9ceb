package model

import (
	"time"

	"github.com/google/uuid"
)

// StudySession groups the attempts of one sitting.
type StudySession struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             int        `json:"user_id"`
	ModuleID           *string    `json:"module_id,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	QuestionsAttempted int        `json:"questions_attempted"`
	CorrectAnswers     int        `json:"correct_answers"`
}

// StartSessionRequest is the payload for opening a study session.
type StartSessionRequest struct {
	ModuleID *string `json:"module_id" binding:"omitempty,module_id"`
}

// UpdateSessionRequest patches a study session; nil fields are left unchanged.
type UpdateSessionRequest struct {
	EndedAt            *time.Time `json:"ended_at"`
	QuestionsAttempted *int       `json:"questions_attempted" binding:"omitempty,min=0"`
	CorrectAnswers     *int       `json:"correct_answers" binding:"omitempty,min=0"`
}

// UserStats is the dashboard summary of a learner's history.
type UserStats struct {
	TotalAttempted int            `json:"total_attempted"`
	TotalCorrect   int            `json:"total_correct"`
	Accuracy       int            `json:"accuracy"`
	RecentAttempts []Attempt      `json:"recent_attempts"`
	RecentSessions []StudySession `json:"recent_sessions"`
	Modules        []ModuleStats  `json:"modules"`
}

// ModuleStats is the per-module breakdown of UserStats.
type ModuleStats struct {
	ModuleID   string `json:"module_id"`
	ModuleName string `json:"module_name"`
	Attempted  int    `json:"attempted"`
	Correct    int    `json:"correct"`
	Accuracy   int    `json:"accuracy"`
}
