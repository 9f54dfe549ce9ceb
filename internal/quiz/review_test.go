package quiz

import (
	"errors"
	"testing"
)

func TestEnterReviewWithoutIncorrectAnswers(t *testing.T) {
	s := New(makeQuestions(2), identitySource{})
	if _, err := s.SelectAnswer(correctPosition(t, s)); err != nil {
		t.Fatal(err)
	}
	s.Navigate(Next)
	before := s.Snapshot()

	r, err := s.EnterReview()
	if !errors.Is(err, ErrNoIncorrectAnswers) || r != nil {
		t.Fatalf("EnterReview() = %v, %v", r, err)
	}
	if s.Index() != before.Index || len(s.Snapshot().Answers) != len(before.Answers) {
		t.Fatal("failed review changed the session")
	}
}

func TestReviewWalksIncorrectOnly(t *testing.T) {
	s := New(makeQuestions(4), identitySource{})
	for _, right := range []bool{false, true, false, true} {
		pos := wrongPosition(t, s)
		if right {
			pos = correctPosition(t, s)
		}
		if _, err := s.SelectAnswer(pos); err != nil {
			t.Fatal(err)
		}
		s.Navigate(Next)
	}
	s.Navigate(Previous)
	sessionIndex := s.Index()

	r, err := s.EnterReview()
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Fatalf("review length %d, want 2", r.Len())
	}

	v, _ := r.Current()
	if v.QuestionID != 1 || v.Number != 1 || v.Total != 2 {
		t.Fatalf("first review item %+v", v)
	}
	if v.Correct == nil || *v.Correct {
		t.Fatal("review item not marked incorrect")
	}

	if r.Navigate(Previous) {
		t.Fatal("review moved before first item")
	}
	if !r.Navigate(Next) {
		t.Fatal("review did not advance")
	}
	v, _ = r.Current()
	if v.QuestionID != 3 {
		t.Fatalf("second review item is question %d, want 3", v.QuestionID)
	}
	if r.Navigate(Skip) {
		t.Fatal("review moved past last item")
	}

	if s.Index() != sessionIndex {
		t.Fatalf("review moved session pointer %d -> %d", sessionIndex, s.Index())
	}
}

func TestReviewSnapshotIsStable(t *testing.T) {
	s := New(makeQuestions(3), identitySource{})
	if _, err := s.SelectAnswer(wrongPosition(t, s)); err != nil {
		t.Fatal(err)
	}
	r, err := s.EnterReview()
	if err != nil {
		t.Fatal(err)
	}

	s.Navigate(Next)
	if _, err := s.SelectAnswer(wrongPosition(t, s)); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 1 {
		t.Fatalf("open review grew to %d items", r.Len())
	}
}

func TestResumeReviewClampsIndex(t *testing.T) {
	s := New(makeQuestions(2), identitySource{})
	for i := 0; i < 2; i++ {
		if _, err := s.SelectAnswer(wrongPosition(t, s)); err != nil {
			t.Fatal(err)
		}
		s.Navigate(Next)
	}

	r, err := s.ResumeReview(9)
	if err != nil {
		t.Fatal(err)
	}
	if r.Index() != 1 {
		t.Fatalf("ResumeReview(9) index %d, want 1", r.Index())
	}
	r, _ = s.ResumeReview(-3)
	if r.Index() != 0 {
		t.Fatalf("ResumeReview(-3) index %d, want 0", r.Index())
	}
}
