// Package scoring turns a session's answers into section scores and an overall score.
//
// Every section starts at the neutral score. Questions are walked in catalog order and
// each is paired with its answer by question ID. The first option whose value or label
// appears in the raw answer (case-sensitive) sets the section score when it carries one.
// When several questions share a section, the last scored match wins.
//
// The overall score is the mean of the section scores times ten, rounded half away from
// zero, so it always lies in [10, 90].
package scoring

import (
	"math"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/models"
)

// Scores is the result of ComputeScores.
type Scores struct {
	Sections map[models.SectionKey]int `json:"sections"`
	Overall  int                       `json:"overall"`
}

// Match records how one question was scored, for diagnostics and the CLI breakdown.
type Match struct {
	QuestionID int               `json:"questionId"`
	Section    models.SectionKey `json:"section"`
	Answered   bool              `json:"answered"`
	Option     *models.Option    `json:"option,omitempty"`
	Applied    bool              `json:"applied"`
}

// ComputeScores scores answers against cat. Missing or unmatched answers leave the
// section at the neutral score.
func ComputeScores(cat *catalog.Catalog, answers []models.Answer) Scores {
	scores, _ := ComputeWithMatches(cat, answers)
	return scores
}

// ComputeWithMatches is ComputeScores plus the per-question match detail.
func ComputeWithMatches(cat *catalog.Catalog, answers []models.Answer) (Scores, []Match) {
	sections := make(map[models.SectionKey]int, len(models.AllSections))
	for _, key := range models.AllSections {
		sections[key] = models.NeutralSectionScore
	}

	byQuestion := make(map[int]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Text
	}

	questions := cat.Questions()
	matches := make([]Match, 0, len(questions))
	for _, q := range questions {
		m := Match{QuestionID: q.ID, Section: q.Section}
		raw, answered := byQuestion[q.ID]
		m.Answered = answered
		if answered {
			if opt, found := q.MatchOption(raw); found {
				m.Option = &opt
				if opt.Score != nil {
					sections[q.Section] = *opt.Score
					m.Applied = true
				}
			}
		}
		matches = append(matches, m)
	}

	return Scores{Sections: sections, Overall: Overall(sections)}, matches
}

// Overall returns round(mean(section scores) * 10) over the fixed section set.
// Sections absent from the map count as neutral.
func Overall(sections map[models.SectionKey]int) int {
	sum := 0
	for _, key := range models.AllSections {
		score, ok := sections[key]
		if !ok {
			score = models.NeutralSectionScore
		}
		sum += score
	}
	mean := float64(sum) / float64(len(models.AllSections))
	return int(math.Round(mean * 10))
}

// OrderedAnswers pairs ordered answer texts with catalog questions by position.
// Texts beyond the catalog length are dropped.
func OrderedAnswers(cat *catalog.Catalog, texts []string) []models.Answer {
	out := make([]models.Answer, 0, len(texts))
	for i, text := range texts {
		q, ok := cat.At(i + 1)
		if !ok {
			break
		}
		out = append(out, models.Answer{QuestionID: q.ID, Text: text})
	}
	return out
}
