package quiz

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Engine errors.
var (
	ErrNoQuestions         = errors.New("quiz has no questions")
	ErrOptionOutOfRange    = errors.New("option position out of range")
	ErrNoIncorrectAnswers  = errors.New("no incorrect answers to review")
	ErrRestartNotConfirmed = errors.New("restart requires confirmation")
	ErrUnknownDirection    = errors.New("unknown navigation direction")
	ErrCorruptState        = errors.New("quiz state violates invariants")
)

// Phase is the coarse lifecycle position of a quiz.
type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	// PhaseReviewing is reported by adapters that hold an open Review.
	PhaseReviewing Phase = "reviewing"
)

// Direction is a navigation intent.
type Direction string

const (
	Previous Direction = "previous"
	Next     Direction = "next"
	Skip     Direction = "skip"
)

// ParseDirection validates a client supplied direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Previous, Next, Skip:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

type answer struct {
	question int
	position int
	option   int
	correct  bool
	at       time.Time
}

// Session is a single practice run. It is not safe for concurrent use;
// every run owns its own instance.
type Session struct {
	src       Source
	now       func() time.Time
	questions []Question
	orders    [][]int
	index     int
	answers   map[int]answer
	answered  []int
	incorrect []int
	correct   int
	completed bool
}

// New shuffles the questions and each question's option order and
// returns a session positioned on the first item. An empty slice yields
// a session in PhaseEmpty.
func New(questions []Question, src Source) *Session {
	s := &Session{src: src, now: time.Now}
	s.reset(questions)
	return s
}

func (s *Session) reset(questions []Question) {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	Shuffle(qs, s.src)

	orders := make([][]int, len(qs))
	for i, q := range qs {
		orders[i] = Permutation(len(q.Options), s.src)
	}

	s.questions = qs
	s.orders = orders
	s.index = 0
	s.answers = make(map[int]answer, len(qs))
	s.answered = nil
	s.incorrect = nil
	s.correct = 0
	s.completed = false
}

// Len returns the number of questions in the run.
func (s *Session) Len() int { return len(s.questions) }

// Index returns the current position, 0-based.
func (s *Session) Index() int { return s.index }

// Completed reports whether every question has been answered.
func (s *Session) Completed() bool { return s.completed }

// Phase reports the session lifecycle phase.
func (s *Session) Phase() Phase {
	switch {
	case len(s.questions) == 0:
		return PhaseEmpty
	case s.completed:
		return PhaseCompleted
	default:
		return PhaseInProgress
	}
}

// Incorrect returns the indices of wrongly answered questions in the
// order they were answered.
func (s *Session) Incorrect() []int {
	out := make([]int, len(s.incorrect))
	copy(out, s.incorrect)
	return out
}

// SelectAnswer answers the current question with the option shown at
// the given display position. Answering an already answered question is
// a no-op and returns (nil, nil).
func (s *Session) SelectAnswer(position int) (*Attempt, error) {
	if len(s.questions) == 0 {
		return nil, ErrNoQuestions
	}
	if _, ok := s.answers[s.index]; ok {
		return nil, nil
	}

	order := s.orders[s.index]
	if position < 0 || position >= len(order) {
		return nil, ErrOptionOutOfRange
	}

	q := s.questions[s.index]
	orig := order[position]
	a := answer{
		question: s.index,
		position: position,
		option:   orig,
		correct:  q.Options[orig].Correct,
		at:       s.now().UTC(),
	}
	s.apply(a)

	att := &Attempt{
		QuestionID:       q.ID,
		SelectedOptionID: q.Options[orig].ID,
		Correct:          a.correct,
		At:               a.at,
	}
	if ci := q.correctIndex(); ci >= 0 {
		att.CorrectOptionID = q.Options[ci].ID
	}
	return att, nil
}

func (s *Session) apply(a answer) {
	s.answers[a.question] = a
	s.answered = append(s.answered, a.question)
	if a.correct {
		s.correct++
	} else {
		s.incorrect = append(s.incorrect, a.question)
	}
	if len(s.answered) == len(s.questions) {
		s.completed = true
	}
}

// Navigate moves the current pointer. Previous floors at the first item,
// Next and Skip stop at the last. It reports whether the index changed.
func (s *Session) Navigate(d Direction) bool {
	next, ok := step(s.index, len(s.questions), d)
	if !ok {
		return false
	}
	s.index = next
	return true
}

func step(index, length int, d Direction) (int, bool) {
	if length == 0 {
		return index, false
	}
	switch d {
	case Previous:
		if index > 0 {
			return index - 1, true
		}
	case Next, Skip:
		if index < length-1 {
			return index + 1, true
		}
	}
	return index, false
}

// CurrentPremium reports whether the question under the pointer is
// premium content.
func (s *Session) CurrentPremium() bool {
	return len(s.questions) > 0 && s.questions[s.index].Premium
}

// Current renders the question under the pointer. ok is false for an
// empty session.
func (s *Session) Current() (QuestionView, bool) {
	if len(s.questions) == 0 {
		return QuestionView{}, false
	}
	v := s.view(s.index)
	v.Index = s.index
	v.Number = s.index + 1
	v.Total = len(s.questions)
	return v, true
}

func (s *Session) view(i int) QuestionView {
	q := s.questions[i]
	order := s.orders[i]
	a, answered := s.answers[i]

	v := QuestionView{
		QuestionID: q.ID,
		Text:       q.Text,
		Topic:      q.Topic,
		Options:    make([]OptionView, len(order)),
		Answered:   answered,
	}
	for pos, orig := range order {
		hint := HintNeutral
		if answered {
			switch {
			case q.Options[orig].Correct:
				hint = HintCorrect
			case pos == a.position:
				hint = HintIncorrect
			}
		}
		v.Options[pos] = OptionView{Position: pos, Text: q.Options[orig].Text, Hint: hint}
	}
	if answered {
		correct := a.correct
		selected := a.position
		v.Correct = &correct
		v.Selected = &selected
		v.Explanation = q.Explanation
		v.Reference = q.Reference
	}
	return v
}

// Stats are the running counters shown next to the quiz.
type Stats struct {
	Total           int  `json:"total"`
	Answered        int  `json:"answered"`
	Correct         int  `json:"correct"`
	Incorrect       int  `json:"incorrect"`
	Accuracy        int  `json:"accuracy"`
	Completed       bool `json:"completed"`
	ReviewAvailable bool `json:"review_available"`
}

// Stats returns counters. Accuracy is the rounded percentage of answered
// questions that were correct, 0 before the first answer.
func (s *Session) Stats() Stats {
	return Stats{
		Total:           len(s.questions),
		Answered:        len(s.answered),
		Correct:         s.correct,
		Incorrect:       len(s.incorrect),
		Accuracy:        percent(s.correct, len(s.answered)),
		Completed:       s.completed,
		ReviewAvailable: len(s.incorrect) > 0,
	}
}

// Results summarise a completed run.
type Results struct {
	Score     int    `json:"score"`
	Correct   int    `json:"correct"`
	Incorrect int    `json:"incorrect"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}

// Results returns the final score, or false while the run is unfinished.
func (s *Session) Results() (Results, bool) {
	if !s.completed {
		return Results{}, false
	}
	score := percent(s.correct, len(s.questions))
	return Results{
		Score:     score,
		Correct:   s.correct,
		Incorrect: len(s.incorrect),
		Total:     len(s.questions),
		Message:   ResultMessage(score),
	}, true
}

// ResultMessage maps a percentage score to its feedback tier.
func ResultMessage(score int) string {
	switch {
	case score >= 80:
		return "Excellent work! You have mastered this topic."
	case score >= 60:
		return "Good job! Keep practicing to improve further."
	default:
		return "Keep practicing to strengthen your understanding of this topic."
	}
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}

// Restart reinitialises the run from a fresh question set. Without
// confirmation it returns ErrRestartNotConfirmed and changes nothing.
func (s *Session) Restart(questions []Question, confirmed bool) error {
	if !confirmed {
		return ErrRestartNotConfirmed
	}
	s.reset(questions)
	return nil
}
