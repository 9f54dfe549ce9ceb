package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one recorded answer.
type Attempt struct {
	ID               int64      `json:"id"`
	UserID           int        `json:"user_id"`
	QuestionID       int64      `json:"question_id"`
	SelectedOptionID int64      `json:"selected_option_id"`
	IsCorrect        bool       `json:"is_correct"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	AttemptedAt      time.Time  `json:"attempted_at"`
}

// SubmitAnswerRequest is the payload for answering a single question.
type SubmitAnswerRequest struct {
	QuestionID       int64      `json:"question_id" binding:"required,min=1"`
	SelectedOptionID int64      `json:"selected_option_id" binding:"required,min=1"`
	SessionID        *uuid.UUID `json:"session_id"`
}

// SubmitAnswerResponse reveals the correct answer for the submitted question.
type SubmitAnswerResponse struct {
	Attempt         Attempt `json:"attempt"`
	IsCorrect       bool    `json:"is_correct"`
	CorrectOptionID int64   `json:"correct_option_id"`
	Explanation     string  `json:"explanation,omitempty"`
	SlideReference  string  `json:"slide_reference,omitempty"`
}
