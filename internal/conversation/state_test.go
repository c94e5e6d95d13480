package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/models"
)

var scenarioA = []string{"8+ projects", "70-100%", "Rarely", "Advanced software", "<5 hours", "Quality issues", "Good"}

func TestNewState(t *testing.T) {
	s := New(catalog.Default())

	assert.Equal(t, models.Progress{Answered: 0, Total: 7}, s.Progress())
	assert.Empty(t, s.Answers())
	assert.False(t, s.IsTerminal())

	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 1, q.ID)
}

func TestSubmitAnswerAdvances(t *testing.T) {
	s := New(catalog.Default())

	for i, text := range scenarioA {
		step, err := s.SubmitAnswer(text)
		require.NoError(t, err)
		assert.Equal(t, i+1, s.Progress().Answered)

		if i < len(scenarioA)-1 {
			assert.Equal(t, KindQuestion, step.Kind)
			require.NotNil(t, step.Question)
			assert.Equal(t, i+2, step.Question.ID)
		} else {
			assert.Equal(t, KindComplete, step.Kind)
			assert.Nil(t, step.Question)
		}
	}

	assert.True(t, s.IsTerminal())
	answers := s.Answers()
	require.Len(t, answers, 7)
	for i, a := range answers {
		assert.Equal(t, i+1, a.QuestionID)
		assert.Equal(t, scenarioA[i], a.Text)
	}
}

func TestSubmitAnswerRejectsBlank(t *testing.T) {
	for _, raw := range []string{"", " ", "\t\n  "} {
		s := New(catalog.Default())
		_, err := s.SubmitAnswer(raw)
		assert.True(t, errors.Is(err, models.ErrInvalidAnswer), "raw %q", raw)
		assert.Equal(t, 0, s.Progress().Answered)
		assert.Empty(t, s.Answers())

		q, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, 1, q.ID, "same question is re-prompted")
	}
}

func TestSubmitAnswerAfterComplete(t *testing.T) {
	s := New(catalog.Default())
	for _, text := range scenarioA {
		_, err := s.SubmitAnswer(text)
		require.NoError(t, err)
	}

	before := s.Answers()
	_, err := s.SubmitAnswer("one more")
	assert.True(t, errors.Is(err, models.ErrAlreadyComplete))
	_, err = s.SubmitAnswerFor(8, "one more")
	assert.True(t, errors.Is(err, models.ErrAlreadyComplete))

	assert.Equal(t, before, s.Answers())
	assert.Equal(t, models.Progress{Answered: 7, Total: 7}, s.Progress())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSubmitAnswerForChecksQuestionID(t *testing.T) {
	s := New(catalog.Default())

	_, err := s.SubmitAnswerFor(2, "70-100%")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnexpectedQuestion))
	assert.Equal(t, 0, s.Progress().Answered)

	step, err := s.SubmitAnswerFor(1, "8+ projects")
	require.NoError(t, err)
	assert.Equal(t, 2, step.Question.ID)

	_, err = s.SubmitAnswerFor(2, "   ")
	assert.True(t, errors.Is(err, models.ErrInvalidAnswer))
	assert.Equal(t, 1, s.Progress().Answered)
}

func TestAnswersReturnsCopy(t *testing.T) {
	s := New(catalog.Default())
	_, err := s.SubmitAnswer("8+ projects")
	require.NoError(t, err)

	answers := s.Answers()
	answers[0].Text = "mutated"
	assert.Equal(t, "8+ projects", s.Answers()[0].Text)
}

func TestRestore(t *testing.T) {
	answers := []models.Answer{{QuestionID: 1, Text: "8+ projects"}, {QuestionID: 2, Text: "70-100%"}}

	s, err := Restore(catalog.Default(), answers)
	require.NoError(t, err)
	assert.Equal(t, answers, s.Answers())
	assert.Equal(t, 2, s.Progress().Answered)

	_, err = Restore(catalog.Default(), []models.Answer{{QuestionID: 3, Text: "Rarely"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnexpectedQuestion))
}
