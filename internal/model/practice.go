package model

import "github.com/medprep/medmcq-backend/internal/quiz"

// StartPracticeRequest opens a practice run for a module or "all".
type StartPracticeRequest struct {
	ModuleID string `json:"module_id" binding:"required,module_id"`
	Limit    int    `json:"limit" binding:"omitempty,min=1,max=500"`
}

// AnswerRequest selects the option shown at a display position.
type AnswerRequest struct {
	Position *int `json:"position" binding:"required,min=0"`
}

// NavigateRequest moves the run's pointer.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=previous next skip"`
}

// RestartRequest must carry confirm=true for the restart to happen.
type RestartRequest struct {
	Confirm bool `json:"confirm"`
}

// PracticeView is the rendered state of a practice run. Warnings travel in
// the response envelope rather than the view.
type PracticeView struct {
	RunID     string             `json:"run_id"`
	ModuleID  string             `json:"module_id"`
	SessionID string             `json:"session_id,omitempty"`
	Phase     quiz.Phase         `json:"phase"`
	Question  *quiz.QuestionView `json:"question"`
	Stats     quiz.Stats         `json:"stats"`
	Results   *quiz.Results      `json:"results,omitempty"`
	Changed   bool               `json:"changed"`
	Warnings  []string           `json:"-"`
}
