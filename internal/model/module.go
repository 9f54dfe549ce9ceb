package model

import "time"

// AllModules selects questions across every module the user may open.
const AllModules = "all"

// Module is a topic grouping of questions, e.g. "cardiology".
type Module struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	IsPremium     bool      `json:"is_premium"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ModuleForUser adds the caller's access to a module listing.
type ModuleForUser struct {
	Module
	Locked bool `json:"locked"`
}
