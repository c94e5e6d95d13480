// Package conversation tracks one session's progress through the question catalog.
//
// A State is exclusively owned by one session and is not safe for concurrent use.
// It is mutated only by SubmitAnswer/SubmitAnswerFor, which append one answer and
// advance one step.
package conversation

import (
	"fmt"
	"strings"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/models"
)

// StepKind tells the driver what to present next.
type StepKind string

const (
	// KindQuestion means another question should be shown.
	KindQuestion StepKind = "question"
	// KindComplete means every question has been answered.
	KindComplete StepKind = "complete"
)

// NextStep is the result of an accepted answer.
type NextStep struct {
	Kind     StepKind         `json:"kind"`
	Question *models.Question `json:"question,omitempty"`
}

// State holds the ordered answers and current step for one session.
type State struct {
	catalog *catalog.Catalog
	step    int
	answers []models.Answer
}

// New starts a conversation at step 0 with no answers.
func New(cat *catalog.Catalog) *State {
	return &State{
		catalog: cat,
		answers: []models.Answer{},
	}
}

// Restore rebuilds a state from previously accepted answers, replaying them in order.
func Restore(cat *catalog.Catalog, answers []models.Answer) (*State, error) {
	s := New(cat)
	for i, a := range answers {
		if _, err := s.SubmitAnswerFor(a.QuestionID, a.Text); err != nil {
			return nil, fmt.Errorf("replay answer %d: %w", i+1, err)
		}
	}
	return s, nil
}

// Current returns the question to present, or false once terminal.
func (s *State) Current() (models.Question, bool) {
	return s.catalog.At(s.step + 1)
}

// SubmitAnswer records raw as the answer to the current question.
func (s *State) SubmitAnswer(raw string) (NextStep, error) {
	current, ok := s.Current()
	if !ok {
		return NextStep{}, models.ErrAlreadyComplete
	}
	return s.accept(current, raw)
}

// SubmitAnswerFor records raw as the answer to questionID, which must be the current question.
func (s *State) SubmitAnswerFor(questionID int, raw string) (NextStep, error) {
	current, ok := s.Current()
	if !ok {
		return NextStep{}, models.ErrAlreadyComplete
	}
	if questionID != current.ID {
		return NextStep{}, fmt.Errorf("%w: got question %d, expected %d",
			models.ErrUnexpectedQuestion, questionID, current.ID)
	}
	return s.accept(current, raw)
}

func (s *State) accept(current models.Question, raw string) (NextStep, error) {
	if strings.TrimSpace(raw) == "" {
		return NextStep{}, models.ErrInvalidAnswer
	}

	s.answers = append(s.answers, models.Answer{QuestionID: current.ID, Text: raw})
	s.step++

	next, ok := s.Current()
	if !ok {
		return NextStep{Kind: KindComplete}, nil
	}
	return NextStep{Kind: KindQuestion, Question: &next}, nil
}

// Progress returns how many questions have been answered out of the total.
func (s *State) Progress() models.Progress {
	return models.Progress{Answered: s.step, Total: s.catalog.Len()}
}

// Answers returns a copy of the accepted answers in arrival order.
func (s *State) Answers() []models.Answer {
	return append([]models.Answer(nil), s.answers...)
}

// IsTerminal reports whether every question has been answered.
func (s *State) IsTerminal() bool {
	return s.step >= s.catalog.Len()
}

// Catalog returns the catalog this conversation runs over.
func (s *State) Catalog() *catalog.Catalog {
	return s.catalog
}
