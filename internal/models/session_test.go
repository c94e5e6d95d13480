package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionUpdateApply(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Session{
		ID:          "s-1",
		Email:       "owner@example.com",
		BuilderName: "Acme Builds",
		CreatedAt:   created,
	}

	SessionUpdate{Phone: String("+61400111222")}.Apply(&s)
	assert.Equal(t, "owner@example.com", s.Email, "untouched fields keep their value")
	assert.Equal(t, "+61400111222", s.Phone)
	assert.Nil(t, s.Report)

	report := &Report{OverallScore: 79, ScoreColor: ColorGreen}
	SessionUpdate{Report: report}.Apply(&s)
	assert.Equal(t, 79, s.OverallScore)
	assert.Equal(t, ColorGreen, s.ScoreColor)
	assert.True(t, s.IsComplete())
	assert.Equal(t, "+61400111222", s.Phone)

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	SessionUpdate{Converted: Bool(true), ConvertedAt: &at}.Apply(&s)
	assert.True(t, s.Converted)
	if assert.NotNil(t, s.ConvertedAt) {
		assert.Equal(t, at, *s.ConvertedAt)
	}
	assert.Equal(t, created, s.CreatedAt)
}

func TestSessionUpdateIsEmpty(t *testing.T) {
	assert.True(t, SessionUpdate{}.IsEmpty())
	assert.False(t, SessionUpdate{Email: String("")}.IsEmpty())
	assert.False(t, SessionUpdate{Answers: []Answer{}}.IsEmpty())
}

func TestReportOrderedSections(t *testing.T) {
	r := Report{SectionScores: map[SectionKey]SectionScore{
		SectionCulture:         {Section: SectionCulture, Score: 8},
		SectionTradingCapacity: {Section: SectionTradingCapacity, Score: 9},
	}}
	ordered := r.OrderedSections()
	if assert.Len(t, ordered, 2) {
		assert.Equal(t, SectionTradingCapacity, ordered[0].Section)
		assert.Equal(t, SectionCulture, ordered[1].Section)
	}
}
