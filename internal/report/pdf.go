package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/harrison/labourcheck/internal/models"
)

// pdfLayout is the subset of pdfcpu's JSON page description we emit.
type pdfLayout struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfFont struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Color string `json:"color,omitempty"`
}

const (
	pdfMarginX    = 50
	pdfTop        = 60
	pdfLineHeight = 18
)

var bandHex = map[models.Color]string{
	models.ColorRed:   "#C0392B",
	models.ColorAmber: "#D68910",
	models.ColorGreen: "#1E8449",
}

// RenderPDF renders a single-page PDF summary of the report.
func RenderPDF(r *models.Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	layout, err := json.Marshal(pdfLayoutFor(r))
	if err != nil {
		return nil, fmt.Errorf("render: pdf layout: %w", err)
	}

	var out bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(layout), &out, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("render: create pdf: %w", err)
	}
	return out.Bytes(), nil
}

// pdfLayoutFor lays the report out top to bottom as plain text lines.
func pdfLayoutFor(r *models.Report) pdfLayout {
	var lines []pdfText
	y := float64(pdfTop)
	add := func(value string, size int, color string) {
		lines = append(lines, pdfText{
			Value: value,
			Pos:   [2]float64{pdfMarginX, y},
			Font:  pdfFont{Name: "Helvetica", Size: size, Color: color},
		})
		y += pdfLineHeight
	}

	title := "Labour Pipeline Report"
	if r.BuilderName != "" {
		title += " - " + r.BuilderName
	}
	add(title, 18, "")
	y += pdfLineHeight / 2
	add(fmt.Sprintf("Overall score: %d/100 (%s)", r.OverallScore, strings.ToUpper(string(r.ScoreColor))), 14, bandHex[r.ScoreColor])
	add(r.RiskProfile.Explanation, 10, "")
	y += pdfLineHeight / 2

	add("Section scores", 13, "")
	for _, s := range r.OrderedSections() {
		add(fmt.Sprintf("%s: %d/9", s.Section.Title(), s.Score), 11, bandHex[s.Color])
	}
	y += pdfLineHeight / 2

	add("Top recommendations", 13, "")
	for i, rec := range r.TopRecommendations {
		add(fmt.Sprintf("%d. %s (%s)", i+1, rec.Title, rec.Impact), 11, "")
	}
	y += pdfLineHeight / 2

	add("Labour leak projection", 13, "")
	add("Estimated annual leak: "+r.LabourLeakProjection.AnnualLeak, 11, "")
	add("Achievable improvement: "+r.LabourLeakProjection.ImprovementRange, 11, "")
	add("Time horizon: "+r.LabourLeakProjection.TimeHorizon, 11, "")

	return pdfLayout{
		Paper:  "A4P",
		Origin: "UpperLeft",
		Pages:  map[string]pdfPage{"1": {Content: pdfContent{Text: lines}}},
	}
}
