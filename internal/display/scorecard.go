package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/harrison/labourcheck/internal/models"
)

// Scorecard prints a report with band colors.
type Scorecard struct {
	colors map[models.Color]*color.Color
	bold   *color.Color
}

// NewScorecard creates a scorecard printer. With colorize false the output is plain text.
func NewScorecard(colorize bool) *Scorecard {
	s := &Scorecard{
		colors: map[models.Color]*color.Color{
			models.ColorGreen: color.New(color.FgGreen, color.Bold),
			models.ColorAmber: color.New(color.FgYellow, color.Bold),
			models.ColorRed:   color.New(color.FgRed, color.Bold),
		},
		bold: color.New(color.Bold),
	}
	all := []*color.Color{s.bold}
	for _, c := range s.colors {
		all = append(all, c)
	}
	for _, c := range all {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *Scorecard) band(c models.Color) *color.Color {
	if col, ok := s.colors[c]; ok {
		return col
	}
	return s.bold
}

// Write prints the overall score, each section and the top recommendations.
func (s *Scorecard) Write(w io.Writer, r *models.Report) {
	if r == nil {
		return
	}
	fmt.Fprintln(w)
	if r.BuilderName != "" {
		s.bold.Fprintf(w, "Labour Pipeline Scorecard: %s\n", r.BuilderName)
	} else {
		s.bold.Fprintln(w, "Labour Pipeline Scorecard")
	}
	fmt.Fprint(w, "Overall: ")
	s.band(r.ScoreColor).Fprintf(w, "%d/100 %s", r.OverallScore, Bar(r.OverallScore, 100, barWidth))
	fmt.Fprintf(w, " %s\n", r.ScoreColor)
	fmt.Fprintf(w, "%s\n\n", r.RiskProfile.Explanation)

	for _, sec := range r.OrderedSections() {
		fmt.Fprintf(w, "  %-26s ", sec.Section.Title())
		s.band(sec.Color).Fprintf(w, "%d/9 %s", sec.Score, Bar(sec.Score, models.MaxSectionScore, 9))
		fmt.Fprintf(w, " %s\n", sec.Color)
	}

	fmt.Fprintln(w)
	s.bold.Fprintln(w, "Top recommendations")
	for i, rec := range r.TopRecommendations {
		fmt.Fprintf(w, "  %d. %s: %s (Impact: %s)\n", i+1, rec.Title, rec.Explanation, rec.Impact)
	}
	fmt.Fprintf(w, "\nEstimated annual labour leak: %s, improvable by %s over %s\n",
		r.LabourLeakProjection.AnnualLeak, r.LabourLeakProjection.ImprovementRange, r.LabourLeakProjection.TimeHorizon)
}
