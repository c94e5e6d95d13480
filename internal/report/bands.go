package report

import "github.com/harrison/labourcheck/internal/models"

// Overall score bands (0-100 scale).
const (
	OverallGreenThreshold = 70
	OverallAmberThreshold = 50
)

// Section score bands (1-9 scale).
const (
	SectionGreenThreshold = 7
	SectionAmberThreshold = 4
)

// OverallColor bands an overall score.
func OverallColor(score int) models.Color {
	switch {
	case score >= OverallGreenThreshold:
		return models.ColorGreen
	case score >= OverallAmberThreshold:
		return models.ColorAmber
	default:
		return models.ColorRed
	}
}

// SectionColor bands a single section score. It uses a different scale from OverallColor.
func SectionColor(score int) models.Color {
	switch {
	case score >= SectionGreenThreshold:
		return models.ColorGreen
	case score >= SectionAmberThreshold:
		return models.ColorAmber
	default:
		return models.ColorRed
	}
}
