package catalog

import "github.com/harrison/labourcheck/internal/models"

var defaultCatalog = MustNew([]models.Question{
	{
		ID:      1,
		Prompt:  "How many projects are you running at the same time?",
		Section: models.SectionTradingCapacity,
		Options: []models.Option{
			{Label: "1-2 projects", Value: "1-2 projects", Score: models.Score(3)},
			{Label: "3-5 projects", Value: "3-5 projects", Score: models.Score(5)},
			{Label: "6-7 projects", Value: "6-7 projects", Score: models.Score(8)},
			{Label: "8+ projects", Value: "8+ projects", Score: models.Score(9)},
		},
	},
	{
		ID:      2,
		Prompt:  "What share of your subcontractors turn up when they say they will?",
		Section: models.SectionReliability,
		Options: []models.Option{
			{Label: "Under 40%", Value: "Under 40%", Score: models.Score(3)},
			{Label: "40-70%", Value: "40-70%", Score: models.Score(5)},
			{Label: "70-100%", Value: "70-100%", Score: models.Score(8)},
		},
	},
	{
		ID:      3,
		Prompt:  "How often do you struggle to find skilled trades?",
		Section: models.SectionRecruitment,
		Options: []models.Option{
			{Label: "Constantly", Value: "Constantly", Score: models.Score(2)},
			{Label: "Often", Value: "Often", Score: models.Score(4)},
			{Label: "Sometimes", Value: "Sometimes", Score: models.Score(6)},
			{Label: "Rarely", Value: "Rarely", Score: models.Score(8)},
			{Label: "Not sure", Value: "Not sure"},
		},
	},
	{
		ID:      4,
		Prompt:  "How do you schedule and track your labour?",
		Section: models.SectionSystems,
		Options: []models.Option{
			{Label: "Paper and phone calls", Value: "Paper and phone calls", Score: models.Score(2)},
			{Label: "Spreadsheets", Value: "Spreadsheets", Score: models.Score(5)},
			{Label: "Job management app", Value: "Job management app", Score: models.Score(8)},
			{Label: "Advanced software", Value: "Advanced software", Score: models.Score(9)},
		},
	},
	{
		ID:      5,
		Prompt:  "How many hours a week do labour delays cost you?",
		Section: models.SectionProfitability,
		Options: []models.Option{
			{Label: "20+ hours", Value: "20+ hours", Score: models.Score(2)},
			{Label: "10-20 hours", Value: "10-20 hours", Score: models.Score(4)},
			{Label: "5-10 hours", Value: "5-10 hours", Score: models.Score(6)},
			{Label: "<5 hours", Value: "<5 hours", Score: models.Score(8)},
		},
	},
	{
		ID:      6,
		Prompt:  "What is the biggest problem when new trades start on site?",
		Section: models.SectionOnboarding,
		Options: []models.Option{
			{Label: "Safety incidents", Value: "Safety incidents", Score: models.Score(3)},
			{Label: "Quality issues", Value: "Quality issues", Score: models.Score(5)},
			{Label: "Slow to get up to speed", Value: "Slow to get up to speed", Score: models.Score(6)},
			{Label: "No real problems", Value: "No real problems", Score: models.Score(8)},
			{Label: "Not sure", Value: "Not sure"},
		},
	},
	{
		ID:      7,
		Prompt:  "How would you rate the culture on your sites?",
		Section: models.SectionCulture,
		Options: []models.Option{
			{Label: "Poor", Value: "Poor", Score: models.Score(2)},
			{Label: "Average", Value: "Average", Score: models.Score(5)},
			{Label: "Good", Value: "Good", Score: models.Score(8)},
			{Label: "Excellent", Value: "Excellent", Score: models.Score(9)},
		},
	},
})

// Default returns the built-in seven-question catalog, one question per section.
func Default() *Catalog {
	return defaultCatalog
}
