package model

import (
	"time"

	"github.com/medprep/medmcq-backend/internal/quiz"
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a multiple-choice item with its options.
type Question struct {
	ID             int64      `json:"id"`
	Text           string     `json:"text"`
	ModuleID       string     `json:"module_id"`
	Topic          string     `json:"topic"`
	Explanation    string     `json:"explanation"`
	SlideReference string     `json:"slide_reference"`
	Difficulty     Difficulty `json:"difficulty"`
	Premium        bool       `json:"premium"`
	Options        []Option   `json:"options"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Option is an answer choice. IsCorrect never leaves the server unsanitised.
type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// CorrectOption returns the first correct option, or nil.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// Option returns the option with the given id, or nil.
func (q *Question) Option(id int64) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// ForUser strips correctness and explanations.
func (q *Question) ForUser() QuestionForUser {
	opts := make([]OptionForUser, len(q.Options))
	for i, o := range q.Options {
		opts[i] = OptionForUser{ID: o.ID, Text: o.Text}
	}
	return QuestionForUser{
		ID:         q.ID,
		Text:       q.Text,
		ModuleID:   q.ModuleID,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		Options:    opts,
	}
}

// ToQuiz converts a stored question into a quiz engine item.
func (q *Question) ToQuiz() quiz.Question {
	opts := make([]quiz.Option, len(q.Options))
	for i, o := range q.Options {
		opts[i] = quiz.Option{ID: o.ID, Text: o.Text, Correct: o.IsCorrect}
	}
	return quiz.Question{
		ID:          q.ID,
		Text:        q.Text,
		Options:     opts,
		Topic:       q.Topic,
		Explanation: q.Explanation,
		Reference:   q.SlideReference,
		Premium:     q.Premium,
	}
}

// QuestionForUser is the wire form of a question before it is answered.
type QuestionForUser struct {
	ID         int64           `json:"id"`
	Text       string          `json:"text"`
	ModuleID   string          `json:"module_id"`
	Topic      string          `json:"topic"`
	Difficulty Difficulty      `json:"difficulty"`
	Options    []OptionForUser `json:"options"`
}

// OptionForUser is an option without its correctness flag.
type OptionForUser struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ImportQuestion is one entry of a question bank file.
type ImportQuestion struct {
	Text           string         `json:"text"`
	Topic          string         `json:"topic"`
	Explanation    string         `json:"explanation"`
	SlideReference string         `json:"slide_reference"`
	Difficulty     Difficulty     `json:"difficulty"`
	Options        []ImportOption `json:"options"`
}

// ImportOption is one option of an imported question.
type ImportOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionBankFile is the on-disk format read by the seed-questions command.
type QuestionBankFile struct {
	Module    Module           `json:"module"`
	Questions []ImportQuestion `json:"questions"`
}
