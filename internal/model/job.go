package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptJob is queued by practice runs and persisted by the attempt worker.
type AttemptJob struct {
	UserID           int        `json:"user_id"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	QuestionID       int64      `json:"question_id"`
	SelectedOptionID int64      `json:"selected_option_id"`
	IsCorrect        bool       `json:"is_correct"`
	AttemptedAt      time.Time  `json:"attempted_at"`
}

// SessionEndJob is queued when a practice run finishes or is abandoned.
type SessionEndJob struct {
	UserID    int       `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	EndedAt   time.Time `json:"ended_at"`
}
