package quiz

import (
	"fmt"
	"time"
)

// State is the serialisable form of a Session. Counters are not stored;
// they are rebuilt from Answers on Restore.
type State struct {
	Questions []Question    `json:"questions"`
	Orders    [][]int       `json:"orders"`
	Index     int           `json:"index"`
	Answers   []AnswerState `json:"answers"`
}

// AnswerState records one answer in the order it was given.
type AnswerState struct {
	Question int       `json:"question"`
	Position int       `json:"position"`
	At       time.Time `json:"at"`
}

// Snapshot captures the session for storage.
func (s *Session) Snapshot() State {
	st := State{
		Questions: s.questions,
		Orders:    s.orders,
		Index:     s.index,
		Answers:   make([]AnswerState, 0, len(s.answered)),
	}
	for _, qi := range s.answered {
		a := s.answers[qi]
		st.Answers = append(st.Answers, AnswerState{Question: qi, Position: a.position, At: a.at})
	}
	return st
}

// Restore rebuilds a session from a snapshot, replaying answers so every
// counter is consistent with the answered set.
func Restore(st State, src Source) (*Session, error) {
	if len(st.Orders) != len(st.Questions) {
		return nil, fmt.Errorf("%w: %d orders for %d questions", ErrCorruptState, len(st.Orders), len(st.Questions))
	}
	for i, q := range st.Questions {
		if !isPermutation(st.Orders[i], len(q.Options)) {
			return nil, fmt.Errorf("%w: bad option order for question %d", ErrCorruptState, q.ID)
		}
	}
	if len(st.Questions) > 0 && (st.Index < 0 || st.Index >= len(st.Questions)) {
		return nil, fmt.Errorf("%w: index %d", ErrCorruptState, st.Index)
	}
	if len(st.Questions) == 0 && st.Index != 0 {
		return nil, fmt.Errorf("%w: index %d", ErrCorruptState, st.Index)
	}

	s := &Session{
		src:       src,
		now:       time.Now,
		questions: st.Questions,
		orders:    st.Orders,
		index:     st.Index,
		answers:   make(map[int]answer, len(st.Answers)),
	}
	for _, as := range st.Answers {
		if as.Question < 0 || as.Question >= len(st.Questions) {
			return nil, fmt.Errorf("%w: answer for question %d", ErrCorruptState, as.Question)
		}
		if _, dup := s.answers[as.Question]; dup {
			return nil, fmt.Errorf("%w: question %d answered twice", ErrCorruptState, as.Question)
		}
		order := st.Orders[as.Question]
		if as.Position < 0 || as.Position >= len(order) {
			return nil, fmt.Errorf("%w: position %d", ErrCorruptState, as.Position)
		}
		orig := order[as.Position]
		s.apply(answer{
			question: as.Question,
			position: as.Position,
			option:   orig,
			correct:  st.Questions[as.Question].Options[orig].Correct,
			at:       as.At,
		})
	}
	return s, nil
}

func isPermutation(p []int, n int) bool {
	if len(p) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range p {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
