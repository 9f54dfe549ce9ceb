package quiz

import "time"

// Option is one answer choice as stored server-side.
type Option struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is an immutable quiz item. Options keep their original order;
// the display order lives on the Session.
type Question struct {
	ID          int64    `json:"id"`
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Topic       string   `json:"topic,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	// Premium marks content that needs an active subscription to answer.
	Premium     bool     `json:"premium,omitempty"`
}

// correctIndex returns the original index of the first correct option, or -1.
func (q Question) correctIndex() int {
	for i, o := range q.Options {
		if o.Correct {
			return i
		}
	}
	return -1
}

// Attempt is emitted once per question when it is first answered.
// The caller owns persistence and attaches the study session id.
type Attempt struct {
	QuestionID       int64     `json:"question_id"`
	SelectedOptionID int64     `json:"selected_option_id"`
	CorrectOptionID  int64     `json:"correct_option_id"`
	Correct          bool      `json:"correct"`
	At               time.Time `json:"at"`
}

// Hint marks an option after its question has been answered.
type Hint string

const (
	HintNeutral   Hint = "neutral"
	HintCorrect   Hint = "correct"
	HintIncorrect Hint = "incorrect"
)

// OptionView is an option in display order. Correctness is only exposed
// through Hint, and only once the question is answered.
type OptionView struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
	Hint     Hint   `json:"hint"`
}

// QuestionView is what presentation layers render for the current item.
type QuestionView struct {
	Index       int          `json:"index"`
	Number      int          `json:"number"`
	Total       int          `json:"total"`
	QuestionID  int64        `json:"question_id"`
	Text        string       `json:"text"`
	Topic       string       `json:"topic,omitempty"`
	Options     []OptionView `json:"options"`
	Answered    bool         `json:"answered"`
	Correct     *bool        `json:"correct,omitempty"`
	Selected    *int         `json:"selected,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	Reference   string       `json:"reference,omitempty"`
}
