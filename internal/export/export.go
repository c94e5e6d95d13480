// Package export writes stored sessions to an Excel workbook for the sales team.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/harrison/labourcheck/internal/models"
)

const (
	leadsSheet   = "Leads"
	summarySheet = "Summary"
)

// Summary aggregates a set of sessions.
type Summary struct {
	Sessions     int
	Completed    int
	WithPhone    int
	Converted    int
	AverageScore float64
	ByColor      map[models.Color]int

	// ConvertedCompleted counts converted sessions that also have a report.
	ConvertedCompleted int
}

// ConversionRate is the share of completed sessions that converted, or 0.
// Conversions recorded before a report exists are left out, so it never exceeds 1.
func (s Summary) ConversionRate() float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.ConvertedCompleted) / float64(s.Completed)
}

// Summarize aggregates sessions. Average score covers completed sessions only.
func Summarize(sessions []*models.Session) Summary {
	sum := Summary{ByColor: map[models.Color]int{}}
	total := 0
	for _, s := range sessions {
		sum.Sessions++
		if s.Phone != "" {
			sum.WithPhone++
		}
		if s.Converted {
			sum.Converted++
		}
		if !s.IsComplete() {
			continue
		}
		sum.Completed++
		if s.Converted {
			sum.ConvertedCompleted++
		}
		total += s.OverallScore
		sum.ByColor[s.ScoreColor]++
	}
	if sum.Completed > 0 {
		sum.AverageScore = float64(total) / float64(sum.Completed)
	}
	return sum
}

func leadHeaders() []interface{} {
	headers := []interface{}{"Session ID", "Created", "Email", "Builder", "Phone", "Overall", "Color"}
	for _, key := range models.AllSections {
		headers = append(headers, key.Title())
	}
	return append(headers, "Report PDF", "Converted", "Converted At")
}

func leadRow(s *models.Session) []interface{} {
	row := []interface{}{s.ID, s.CreatedAt.Format(time.RFC3339), s.Email, s.BuilderName, s.Phone}
	if s.IsComplete() {
		row = append(row, s.OverallScore, string(s.ScoreColor))
		for _, key := range models.AllSections {
			row = append(row, s.Report.SectionScores[key].Score)
		}
	} else {
		row = append(row, nil, "incomplete")
		for range models.AllSections {
			row = append(row, nil)
		}
	}
	converted := "no"
	if s.Converted {
		converted = "yes"
	}
	convertedAt := ""
	if s.ConvertedAt != nil {
		convertedAt = s.ConvertedAt.Format(time.RFC3339)
	}
	return append(row, s.DocumentURL, converted, convertedAt)
}

// Build creates a workbook with a Leads sheet (one row per session) and a Summary sheet.
// The caller closes the returned file.
func Build(sessions []*models.Session) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), leadsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headers := leadHeaders()
	if err := f.SetSheetRow(leadsSheet, "A1", &headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("write headers: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(leadsSheet, "A1", last, bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("style headers: %w", err)
	}

	for i, s := range sessions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := leadRow(s)
		if err := f.SetSheetRow(leadsSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write session %s: %w", s.ID, err)
		}
	}

	if err := writeSummary(f, Summarize(sessions), bold); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSummary(f *excelize.File, sum Summary, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Sessions", sum.Sessions},
		{"Completed", sum.Completed},
		{"With phone", sum.WithPhone},
		{"Converted", sum.Converted},
		{"Conversion rate", sum.ConversionRate()},
		{"Average score", sum.AverageScore},
		{"Green", sum.ByColor[models.ColorGreen]},
		{"Amber", sum.ByColor[models.ColorAmber]},
		{"Red", sum.ByColor[models.ColorRed]},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	return nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, sessions []*models.Session) error {
	f, err := Build(sessions)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save builds the workbook and saves it to path.
func Save(path string, sessions []*models.Session) error {
	f, err := Build(sessions)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
