package models

import "time"

// Session is the persisted record of one funnel run, owned by the delivery side.
// Fields fill in over time: the report, then the phone number, then conversion.
type Session struct {
	ID           string     `json:"id"`
	Email        string     `json:"email,omitempty"`
	BuilderName  string     `json:"builderName,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Answers      []Answer   `json:"answers,omitempty"`
	Report       *Report    `json:"report,omitempty"`
	OverallScore int        `json:"overallScore,omitempty"`
	ScoreColor   Color      `json:"scoreColor,omitempty"`
	DocumentURL  string     `json:"documentUrl,omitempty"`
	Converted    bool       `json:"converted"`
	ConvertedAt  *time.Time `json:"convertedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsComplete reports whether a report has been recorded for the session.
func (s *Session) IsComplete() bool {
	return s.Report != nil
}

// SessionUpdate is a partial update. Nil fields are left unchanged.
type SessionUpdate struct {
	Email       *string
	BuilderName *string
	Phone       *string
	Answers     []Answer
	Report      *Report
	DocumentURL *string
	Converted   *bool
	ConvertedAt *time.Time
}

// IsEmpty reports whether the update carries no fields.
func (u SessionUpdate) IsEmpty() bool {
	return u.Email == nil && u.BuilderName == nil && u.Phone == nil && u.Answers == nil &&
		u.Report == nil && u.DocumentURL == nil && u.Converted == nil && u.ConvertedAt == nil
}

// Apply merges u into s in place. Only provided fields are overwritten.
func (u SessionUpdate) Apply(s *Session) {
	if u.Email != nil {
		s.Email = *u.Email
	}
	if u.BuilderName != nil {
		s.BuilderName = *u.BuilderName
	}
	if u.Phone != nil {
		s.Phone = *u.Phone
	}
	if u.Answers != nil {
		s.Answers = append([]Answer(nil), u.Answers...)
	}
	if u.Report != nil {
		s.Report = u.Report
		s.OverallScore = u.Report.OverallScore
		s.ScoreColor = u.Report.ScoreColor
	}
	if u.DocumentURL != nil {
		s.DocumentURL = *u.DocumentURL
	}
	if u.Converted != nil {
		s.Converted = *u.Converted
	}
	if u.ConvertedAt != nil {
		t := *u.ConvertedAt
		s.ConvertedAt = &t
	}
}

// String returns a pointer to v, for building updates.
func String(v string) *string {
	return &v
}

// Bool returns a pointer to v, for building updates.
func Bool(v bool) *bool {
	return &v
}
