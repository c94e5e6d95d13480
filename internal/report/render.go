package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/labourcheck/internal/models"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderJSON produces a pretty-printed JSON representation of the report.
func RenderJSON(r *models.Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces the human-readable report used for the email body.
func RenderMarkdown(r *models.Report) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder

	if r.BuilderName != "" {
		fmt.Fprintf(&sb, "# Labour Pipeline Report for %s\n\n", mdEscape(r.BuilderName))
	} else {
		sb.WriteString("# Labour Pipeline Report\n\n")
	}
	fmt.Fprintf(&sb, "**Overall score:** %d/100 (%s)\n\n", r.OverallScore, strings.ToUpper(string(r.ScoreColor)))
	fmt.Fprintf(&sb, "%s\n\n", r.RiskProfile.Explanation)

	sb.WriteString("## Section Scores\n\n")
	sb.WriteString("| Section | Score | Band | Commentary |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, s := range r.OrderedSections() {
		fmt.Fprintf(&sb, "| %s | %d/9 | %s | %s |\n", s.Section.Title(), s.Score, s.Color, mdEscape(s.Commentary))
	}
	sb.WriteString("\n")

	sb.WriteString("## Top Recommendations\n\n")
	for i, rec := range r.TopRecommendations {
		fmt.Fprintf(&sb, "%d. **%s**: %s _Impact: %s_\n", i+1, rec.Title, rec.Explanation, rec.Impact)
	}
	sb.WriteString("\n")

	sb.WriteString("## Labour Leak Projection\n\n")
	fmt.Fprintf(&sb, "- Estimated annual leak: %s\n", r.LabourLeakProjection.AnnualLeak)
	fmt.Fprintf(&sb, "- Achievable improvement: %s\n", r.LabourLeakProjection.ImprovementRange)
	fmt.Fprintf(&sb, "- Time horizon: %s\n", r.LabourLeakProjection.TimeHorizon)

	return sb.String()
}

// RenderHTML converts the Markdown rendering into an HTML document.
func RenderHTML(r *models.Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("render: nil report")
	}
	var body bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(r)), &body); err != nil {
		return "", fmt.Errorf("render: markdown to html: %w", err)
	}
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Labour Pipeline Report</title></head><body>\n" +
		body.String() + "</body></html>\n", nil
}

// RenderText produces a compact plain-text summary for terminals and logs.
func RenderText(r *models.Report) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall score: %d/100 (%s)\n", r.OverallScore, r.ScoreColor)
	for _, s := range r.OrderedSections() {
		fmt.Fprintf(&sb, "  %-26s %d/9 %s\n", s.Section.Title(), s.Score, s.Color)
	}
	sb.WriteString("Top recommendations:\n")
	for i, rec := range r.TopRecommendations {
		fmt.Fprintf(&sb, "  %d. %s (%s)\n", i+1, rec.Title, rec.Impact)
	}
	fmt.Fprintf(&sb, "Estimated annual labour leak: %s\n", r.LabourLeakProjection.AnnualLeak)
	return sb.String()
}

// mdEscape escapes pipe characters so they do not break Markdown tables.
func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
