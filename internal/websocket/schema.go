package websocket

import "github.com/medprep/medmcq-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart      Action = "start"
	ActionResume     Action = "resume"
	ActionSelect     Action = "select"
	ActionNavigate   Action = "navigate"
	ActionReview     Action = "review"
	ActionExitReview Action = "exit_review"
	ActionRestart    Action = "restart"
	ActionPing       Action = "ping"
)

// RequestPayload is every client message. Only the fields of the given
// action are read.
type RequestPayload struct {
	Action    Action `json:"action"`
	ModuleID  string `json:"module_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Position  *int   `json:"position,omitempty"`
	Direction string `json:"direction,omitempty"`
	Confirm   bool   `json:"confirm,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState    Event = "state"
	EventFeedback Event = "feedback"
	EventLoading  Event = "loading"
	EventNotice   Event = "notice"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// StateResponse carries the rendered run after any intent.
type StateResponse struct {
	Event    Event               `json:"event"`
	State    *model.PracticeView `json:"state"`
	Warnings []string            `json:"warnings,omitempty"`
}

// FeedbackResponse follows an answer that was accepted. The state's
// current question holds the hints, explanation and reference.
type FeedbackResponse struct {
	Event    Event               `json:"event"`
	Correct  bool                `json:"correct"`
	State    *model.PracticeView `json:"state"`
	Warnings []string            `json:"warnings,omitempty"`
}

// LoadingResponse acknowledges a start while questions are fetched.
type LoadingResponse struct {
	Event    Event  `json:"event"`
	ModuleID string `json:"module_id"`
}

// NoticeResponse reports a refused intent that left the run unchanged,
// e.g. reviewing with no incorrect answers.
type NoticeResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
