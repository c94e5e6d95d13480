// Package report assembles the final diagnostic report and renders it for delivery.
//
// Assembly is a pure function of the scores and the owner's identity over fixed tables:
// band colors, per-section commentary, three threshold-selected recommendations, a
// risk profile and a labour leak projection. Nothing is computed from the raw score
// beyond band selection.
package report

import (
	"time"

	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/scoring"
)

// Build assembles a report from scores. GeneratedAt is left zero so repeated calls
// with the same input are identical.
func Build(scores scoring.Scores, identity models.Identity) models.Report {
	return BuildAt(scores, identity, time.Time{})
}

// BuildAt is Build with an explicit generation time.
func BuildAt(scores scoring.Scores, identity models.Identity, generatedAt time.Time) models.Report {
	scoreColor := OverallColor(scores.Overall)

	sections := make(map[models.SectionKey]models.SectionScore, len(models.AllSections))
	for _, key := range models.AllSections {
		score, ok := scores.Sections[key]
		if !ok {
			score = models.NeutralSectionScore
		}
		color := SectionColor(score)
		sections[key] = models.SectionScore{
			Section:    key,
			Score:      score,
			Color:      color,
			Commentary: sectionCommentary[key][color],
		}
	}

	return models.Report{
		Email:                identity.Email,
		BuilderName:          identity.BuilderName,
		OverallScore:         scores.Overall,
		ScoreColor:           scoreColor,
		SectionScores:        sections,
		TopRecommendations:   recommendations(sections),
		RiskProfile:          models.RiskProfile{Color: scoreColor, Explanation: riskExplanations[scoreColor]},
		LabourLeakProjection: leakProjections[scoreColor],
		GeneratedAt:          generatedAt,
	}
}

func recommendations(sections map[models.SectionKey]models.SectionScore) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(recommendationSlots))
	for _, slot := range recommendationSlots {
		if sections[slot.section].Score < slot.threshold {
			out = append(out, slot.fix)
		} else {
			out = append(out, slot.maintain)
		}
	}
	return out
}
