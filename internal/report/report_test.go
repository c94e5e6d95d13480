package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/scoring"
)

var owner = models.Identity{Email: "owner@example.com", BuilderName: "Acme Builds"}

func uniform(score int) scoring.Scores {
	sections := map[models.SectionKey]int{}
	for _, k := range models.AllSections {
		sections[k] = score
	}
	return scoring.Scores{Sections: sections, Overall: scoring.Overall(sections)}
}

func TestOverallColorBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  models.Color
	}{
		{100, models.ColorGreen},
		{70, models.ColorGreen},
		{69, models.ColorAmber},
		{50, models.ColorAmber},
		{49, models.ColorRed},
		{0, models.ColorRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OverallColor(tt.score), "overall %d", tt.score)
	}
}

func TestSectionColorBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  models.Color
	}{
		{9, models.ColorGreen},
		{7, models.ColorGreen},
		{6, models.ColorAmber},
		{4, models.ColorAmber},
		{3, models.ColorRed},
		{1, models.ColorRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SectionColor(tt.score), "section %d", tt.score)
	}
}

func TestBuildScenarioA(t *testing.T) {
	cat := catalog.Default()
	answers := scoring.OrderedAnswers(cat, []string{
		"8+ projects", "70-100%", "Rarely", "Advanced software", "<5 hours", "Quality issues", "Good",
	})

	r := Build(scoring.ComputeScores(cat, answers), owner)

	assert.Equal(t, 79, r.OverallScore)
	assert.Equal(t, models.ColorGreen, r.ScoreColor)
	assert.Equal(t, owner.Email, r.Email)
	assert.Equal(t, owner.BuilderName, r.BuilderName)
	require.Len(t, r.SectionScores, 7)

	onboarding := r.SectionScores[models.SectionOnboarding]
	assert.Equal(t, 5, onboarding.Score)
	assert.Equal(t, models.ColorAmber, onboarding.Color)
	assert.Equal(t, sectionCommentary[models.SectionOnboarding][models.ColorAmber], onboarding.Commentary)

	systems := r.SectionScores[models.SectionSystems]
	assert.Equal(t, models.ColorGreen, systems.Color)

	assert.Equal(t, models.ColorGreen, r.RiskProfile.Color)
	assert.Equal(t, riskExplanations[models.ColorGreen], r.RiskProfile.Explanation)
	assert.Equal(t, leakProjections[models.ColorGreen], r.LabourLeakProjection)

	require.Len(t, r.TopRecommendations, 3)
	assert.Equal(t, "Maintain subcontractor reliability", r.TopRecommendations[0].Title)
}

func TestBuildScenarioB(t *testing.T) {
	r := Build(uniform(5), owner)

	assert.Equal(t, 50, r.OverallScore)
	assert.Equal(t, models.ColorAmber, r.ScoreColor)
	assert.Equal(t, leakProjections[models.ColorAmber], r.LabourLeakProjection)
	for _, s := range r.SectionScores {
		assert.Equal(t, models.ColorAmber, s.Color)
	}
	// 5 is not below any slot threshold
	for i, rec := range r.TopRecommendations {
		assert.Equal(t, recommendationSlots[i].maintain, rec)
	}
}

func TestBuildScenarioCReliabilityFix(t *testing.T) {
	cat := catalog.Default()
	answers := scoring.OrderedAnswers(cat, []string{
		"6-7 projects", "Under 40%", "Rarely", "Job management app", "<5 hours", "No real problems", "Good",
	})
	scores := scoring.ComputeScores(cat, answers)
	require.Equal(t, 3, scores.Sections[models.SectionReliability])
	for _, k := range models.AllSections {
		if k != models.SectionReliability {
			require.Equal(t, 8, scores.Sections[k], "section %s", k)
		}
	}

	r := Build(scores, owner)

	assert.Equal(t, "Fix subcontractor reliability", r.TopRecommendations[0].Title)
	assert.NotEqual(t, recommendationSlots[0].maintain.Title, r.TopRecommendations[0].Title)
	assert.Equal(t, models.ColorRed, r.SectionScores[models.SectionReliability].Color)
	assert.Equal(t, 73, r.OverallScore)
}

func TestRecommendationThresholds(t *testing.T) {
	tests := []struct {
		name    string
		section models.SectionKey
		slot    int
		score   int
		wantFix bool
	}{
		{"reliability 4 fixes", models.SectionReliability, 0, 4, true},
		{"reliability 5 maintains", models.SectionReliability, 0, 5, false},
		{"recruitment 1 fixes", models.SectionRecruitment, 1, 1, true},
		{"recruitment 9 maintains", models.SectionRecruitment, 1, 9, false},
		{"systems 2 fixes", models.SectionSystems, 2, 2, true},
		{"systems 6 maintains", models.SectionSystems, 2, 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := uniform(6)
			scores.Sections[tt.section] = tt.score
			scores.Overall = scoring.Overall(scores.Sections)

			r := Build(scores, owner)
			want := recommendationSlots[tt.slot].maintain
			if tt.wantFix {
				want = recommendationSlots[tt.slot].fix
			}
			assert.Equal(t, want, r.TopRecommendations[tt.slot])
		})
	}
}

func TestBuildRedBand(t *testing.T) {
	r := Build(uniform(2), owner)

	assert.Equal(t, 20, r.OverallScore)
	assert.Equal(t, models.ColorRed, r.ScoreColor)
	assert.Equal(t, leakProjections[models.ColorRed], r.LabourLeakProjection)
	assert.Equal(t, riskExplanations[models.ColorRed], r.RiskProfile.Explanation)
}

func TestBuildIsPure(t *testing.T) {
	scores := uniform(7)
	first := Build(scores, owner)
	second := Build(scores, owner)
	assert.Equal(t, first, second)
	assert.True(t, first.GeneratedAt.IsZero())

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stamped := BuildAt(scores, owner, at)
	assert.Equal(t, at, stamped.GeneratedAt)
}

func TestBuildFillsMissingSections(t *testing.T) {
	r := Build(scoring.Scores{Sections: map[models.SectionKey]int{}, Overall: 50}, models.Identity{})
	require.Len(t, r.SectionScores, 7)
	for _, s := range r.SectionScores {
		assert.Equal(t, 5, s.Score)
	}
}

func TestCommentaryTablesComplete(t *testing.T) {
	for _, k := range models.AllSections {
		for _, c := range []models.Color{models.ColorRed, models.ColorAmber, models.ColorGreen} {
			assert.NotEmpty(t, sectionCommentary[k][c], "%s/%s", k, c)
		}
	}
	assert.Len(t, recommendationSlots, 3)
	assert.Len(t, leakProjections, 3)
	assert.Len(t, riskExplanations, 3)
}

func TestReportJSONKeys(t *testing.T) {
	r := Build(uniform(8), owner)
	data, err := RenderJSON(&r)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"overallScore", "scoreColor", "sectionScores", "topRecommendations", "riskProfile", "labourLeakProjection"} {
		assert.Contains(t, raw, key)
	}

	var back models.Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.SectionScores, back.SectionScores)

	_, err = RenderJSON(nil)
	assert.Error(t, err)
}
