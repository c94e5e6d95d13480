package models

import "time"

// Section and overall score bounds.
const (
	MinSectionScore     = 1
	MaxSectionScore     = 9
	NeutralSectionScore = 5
)

// SectionScore is the scored result for one section.
type SectionScore struct {
	Section    SectionKey `json:"section"`
	Score      int        `json:"score"`
	Color      Color      `json:"color"`
	Commentary string     `json:"commentary"`
}

// Recommendation is one of the report's top three actions.
type Recommendation struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Impact      string `json:"impact"`
}

// RiskProfile summarises the overall band.
type RiskProfile struct {
	Color       Color  `json:"color"`
	Explanation string `json:"explanation"`
}

// LabourLeakProjection is the projected cost of labour inefficiency for a band.
type LabourLeakProjection struct {
	AnnualLeak       string `json:"annualLeak"`
	ImprovementRange string `json:"improvementRange"`
	TimeHorizon      string `json:"timeHorizon"`
}

// Report is the final payload for one completed diagnostic.
// It is immutable once built and is handed to the delivery collaborators.
type Report struct {
	Email                string                      `json:"email,omitempty"`
	BuilderName          string                      `json:"builderName,omitempty"`
	OverallScore         int                         `json:"overallScore"`
	ScoreColor           Color                       `json:"scoreColor"`
	SectionScores        map[SectionKey]SectionScore `json:"sectionScores"`
	TopRecommendations   []Recommendation            `json:"topRecommendations"`
	RiskProfile          RiskProfile                 `json:"riskProfile"`
	LabourLeakProjection LabourLeakProjection        `json:"labourLeakProjection"`
	GeneratedAt          time.Time                   `json:"generatedAt,omitempty"`
}

// OrderedSections returns the section scores in AllSections order.
func (r *Report) OrderedSections() []SectionScore {
	out := make([]SectionScore, 0, len(r.SectionScores))
	for _, key := range AllSections {
		if s, ok := r.SectionScores[key]; ok {
			out = append(out, s)
		}
	}
	return out
}
