package quiz

// Review is a read-only walk over the questions answered incorrectly at
// the moment it was opened. It shares option orders and markings with
// the parent session but keeps its own pointer, so closing it leaves the
// session exactly where it was.
type Review struct {
	s     *Session
	items []int
	index int
}

// EnterReview opens a review. With no incorrect answers it returns
// ErrNoIncorrectAnswers and the session is untouched.
func (s *Session) EnterReview() (*Review, error) {
	if len(s.incorrect) == 0 {
		return nil, ErrNoIncorrectAnswers
	}
	return &Review{s: s, items: s.Incorrect()}, nil
}

// ResumeReview reopens a review at a previously saved position.
func (s *Session) ResumeReview(index int) (*Review, error) {
	r, err := s.EnterReview()
	if err != nil {
		return nil, err
	}
	r.index = min(max(index, 0), len(r.items)-1)
	return r, nil
}

// Len returns the number of items under review.
func (r *Review) Len() int { return len(r.items) }

// Index returns the review pointer, 0-based.
func (r *Review) Index() int { return r.index }

// Navigate moves within the review with the same bounds as the session.
func (r *Review) Navigate(d Direction) bool {
	next, ok := step(r.index, len(r.items), d)
	if !ok {
		return false
	}
	r.index = next
	return true
}

// Current renders the item under the review pointer. Index and Total
// refer to the review list, QuestionID identifies the underlying item.
func (r *Review) Current() (QuestionView, bool) {
	if len(r.items) == 0 {
		return QuestionView{}, false
	}
	v := r.s.view(r.items[r.index])
	v.Index = r.index
	v.Number = r.index + 1
	v.Total = len(r.items)
	return v, true
}
