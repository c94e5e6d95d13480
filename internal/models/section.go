package models

// SectionKey identifies one of the fixed labour-pipeline health dimensions.
type SectionKey string

// Section keys, in report order.
const (
	SectionTradingCapacity SectionKey = "tradingCapacity"
	SectionReliability     SectionKey = "reliability"
	SectionRecruitment     SectionKey = "recruitment"
	SectionSystems         SectionKey = "systems"
	SectionProfitability   SectionKey = "profitability"
	SectionOnboarding      SectionKey = "onboarding"
	SectionCulture         SectionKey = "culture"
)

// AllSections is the closed set of section keys in report order.
// A catalog must cover every one of them.
var AllSections = []SectionKey{
	SectionTradingCapacity,
	SectionReliability,
	SectionRecruitment,
	SectionSystems,
	SectionProfitability,
	SectionOnboarding,
	SectionCulture,
}

// sectionTitles holds the human-readable name of each section.
var sectionTitles = map[SectionKey]string{
	SectionTradingCapacity: "Trading Capacity",
	SectionReliability:     "Subcontractor Reliability",
	SectionRecruitment:     "Recruitment",
	SectionSystems:         "Systems",
	SectionProfitability:   "Profitability",
	SectionOnboarding:      "Onboarding",
	SectionCulture:         "Site Culture",
}

// IsValid reports whether k is one of the fixed section keys.
func (k SectionKey) IsValid() bool {
	_, ok := sectionTitles[k]
	return ok
}

// Title returns the display name for the section, or the raw key if unknown.
func (k SectionKey) Title() string {
	if title, ok := sectionTitles[k]; ok {
		return title
	}
	return string(k)
}

// Color is a traffic-light band.
type Color string

// Band colors
const (
	ColorRed   Color = "red"
	ColorAmber Color = "amber"
	ColorGreen Color = "green"
)
