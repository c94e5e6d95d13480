package models

import (
	"fmt"
	"strings"
)

// Option is one selectable answer to a Question.
// Score is nil when the option makes no direct score contribution.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
	Score *int   `yaml:"score,omitempty" json:"score,omitempty"`
}

// Matches reports whether the option's value or label is contained in the raw answer.
// The check is case-sensitive; empty value/label never match.
func (o Option) Matches(raw string) bool {
	if o.Value != "" && strings.Contains(raw, o.Value) {
		return true
	}
	return o.Label != "" && strings.Contains(raw, o.Label)
}

// Question is one step of the diagnostic quiz.
type Question struct {
	ID      int        `yaml:"id" json:"id"`
	Prompt  string     `yaml:"prompt" json:"prompt"`
	Section SectionKey `yaml:"section" json:"section"`
	Options []Option   `yaml:"options" json:"options"`
}

// Validate checks the question in isolation.
func (q *Question) Validate() error {
	if q.ID <= 0 {
		return fmt.Errorf("question id must be > 0, got %d", q.ID)
	}
	if q.Prompt == "" {
		return fmt.Errorf("question %d: prompt is required", q.ID)
	}
	if !q.Section.IsValid() {
		return fmt.Errorf("question %d: unknown section %q", q.ID, q.Section)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("question %d: at least one option is required", q.ID)
	}
	for i, opt := range q.Options {
		if opt.Label == "" && opt.Value == "" {
			return fmt.Errorf("question %d option %d: label or value is required", q.ID, i+1)
		}
		if opt.Score != nil && (*opt.Score < MinSectionScore || *opt.Score > MaxSectionScore) {
			return fmt.Errorf("question %d option %q: score %d outside [%d,%d]",
				q.ID, opt.Label, *opt.Score, MinSectionScore, MaxSectionScore)
		}
	}
	return nil
}

// MatchOption returns the first option contained in raw, in option order.
func (q *Question) MatchOption(raw string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Matches(raw) {
			return opt, true
		}
	}
	return Option{}, false
}

// Score returns a pointer to s, for building Options.
func Score(s int) *int {
	return &s
}
