package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/harrison/labourcheck/internal/models"
)

func sessions() []*models.Session {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	converted := created.Add(48 * time.Hour)
	sections := map[models.SectionKey]models.SectionScore{}
	for _, key := range models.AllSections {
		sections[key] = models.SectionScore{Section: key, Score: 8, Color: models.ColorGreen}
	}
	sections[models.SectionReliability] = models.SectionScore{Section: models.SectionReliability, Score: 3, Color: models.ColorRed}

	return []*models.Session{
		{
			ID: "s1", Email: "a@acme.test", BuilderName: "Acme", Phone: "+61400000000",
			Report:       &models.Report{OverallScore: 73, ScoreColor: models.ColorGreen, SectionScores: sections},
			OverallScore: 73, ScoreColor: models.ColorGreen,
			DocumentURL: "https://docs.test/r.pdf", Converted: true, ConvertedAt: &converted, CreatedAt: created,
		},
		{
			ID: "s2", Email: "b@acme.test",
			Report:       &models.Report{OverallScore: 50, ScoreColor: models.ColorAmber, SectionScores: sections},
			OverallScore: 50, ScoreColor: models.ColorAmber, CreatedAt: created,
		},
		{ID: "s3", Email: "c@acme.test", CreatedAt: created},
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sessions())
	assert.Equal(t, 3, sum.Sessions)
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 1, sum.WithPhone)
	assert.Equal(t, 1, sum.Converted)
	assert.InDelta(t, 61.5, sum.AverageScore, 0.001)
	assert.InDelta(t, 0.5, sum.ConversionRate(), 0.001)
	assert.Equal(t, 1, sum.ByColor[models.ColorGreen])
	assert.Equal(t, 1, sum.ByColor[models.ColorAmber])
}

func TestSummarize_ConversionBeforeReport(t *testing.T) {
	converted := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	all := append(sessions(),
		&models.Session{ID: "s4", Phone: "+61400000001", Converted: true, ConvertedAt: &converted},
		&models.Session{ID: "s5", Phone: "+61400000002", Converted: true, ConvertedAt: &converted},
	)

	sum := Summarize(all)
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 3, sum.Converted)
	assert.Equal(t, 1, sum.ConvertedCompleted)
	assert.InDelta(t, 0.5, sum.ConversionRate(), 0.001)
	assert.LessOrEqual(t, sum.ConversionRate(), 1.0)
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	assert.Zero(t, sum.AverageScore)
	assert.Zero(t, sum.ConversionRate())
}

func TestWrite_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sessions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{leadsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(leadsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	header := rows[0]
	assert.Equal(t, "Session ID", header[0])
	assert.Equal(t, "Subcontractor Reliability", header[8])
	assert.Equal(t, "Converted At", header[len(header)-1])

	first := rows[1]
	assert.Equal(t, "s1", first[0])
	assert.Equal(t, "2026-03-01T09:00:00Z", first[1])
	assert.Equal(t, "73", first[5])
	assert.Equal(t, "green", first[6])
	assert.Equal(t, "3", first[8])
	assert.Equal(t, "yes", first[15])
	assert.Equal(t, "2026-03-03T09:00:00Z", first[16])

	incomplete := rows[3]
	assert.Equal(t, "incomplete", incomplete[6])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sessions", "3"}, summary[1])
	assert.Equal(t, []string{"Converted", "1"}, summary[4])
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, Save(path, sessions()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(leadsSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "a@acme.test", v)
}
