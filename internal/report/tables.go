package report

import "github.com/harrison/labourcheck/internal/models"

// sectionCommentary holds the three fixed commentary lines per section, keyed by band.
var sectionCommentary = map[models.SectionKey]map[models.Color]string{
	models.SectionTradingCapacity: {
		models.ColorRed:   "You are running fewer jobs than your business can carry. Labour gaps are capping how much work you can take on.",
		models.ColorAmber: "You are carrying a steady workload, but labour availability is limiting how fast you can grow.",
		models.ColorGreen: "You are running a strong pipeline of concurrent jobs. Protect it by locking in your best crews early.",
	},
	models.SectionReliability: {
		models.ColorRed:   "No-shows are costing you days on every job. Unreliable subcontractors are your single biggest schedule risk.",
		models.ColorAmber: "Most trades turn up, but the misses are frequent enough to push programmes and frustrate clients.",
		models.ColorGreen: "Your subcontractors are dependable. Keep rewarding the crews that turn up so they stay with you.",
	},
	models.SectionRecruitment: {
		models.ColorRed:   "Finding skilled trades is a constant fight. Every vacancy is delaying work and pushing up rates.",
		models.ColorAmber: "You can usually find people, but it takes longer than it should and quality is hit and miss.",
		models.ColorGreen: "Recruitment is under control. A warm bench of trades means you rarely wait on labour.",
	},
	models.SectionSystems: {
		models.ColorRed:   "Paper and phone calls are hiding where your labour hours go. You cannot fix what you cannot see.",
		models.ColorAmber: "Your systems cover the basics, but scheduling still depends on people remembering things.",
		models.ColorGreen: "Your systems give you real visibility of labour. Use that data to plan further ahead.",
	},
	models.SectionProfitability: {
		models.ColorRed:   "Labour delays are eating a large share of your margin every week.",
		models.ColorAmber: "Delays are costing you a noticeable slice of margin. Small fixes here pay back quickly.",
		models.ColorGreen: "Very little time is lost to labour delays. Your margins are well protected.",
	},
	models.SectionOnboarding: {
		models.ColorRed:   "New trades are starting without the basics. Incidents and rework on day one are expensive.",
		models.ColorAmber: "New starters get there eventually, but the first weeks cost you quality and supervision time.",
		models.ColorGreen: "New trades slot in quickly. Your induction process is doing its job.",
	},
	models.SectionCulture: {
		models.ColorRed:   "Site culture is driving good trades away. People talk, and the best crews choose other builders.",
		models.ColorAmber: "Culture is okay but not a reason for trades to pick you over the builder down the road.",
		models.ColorGreen: "Trades want to work on your sites. That reputation is a real recruiting advantage.",
	},
}

// recommendationSlot picks between a "fix" and "maintain" recommendation on one section.
type recommendationSlot struct {
	section   models.SectionKey
	threshold int
	fix       models.Recommendation
	maintain  models.Recommendation
}

// recommendationSlots are the three fixed report slots, in order.
var recommendationSlots = []recommendationSlot{
	{
		section:   models.SectionReliability,
		threshold: 5,
		fix: models.Recommendation{
			Title:       "Fix subcontractor reliability",
			Explanation: "Confirm bookings 48 hours out, track no-shows per trade, and move work to the crews that turn up.",
			Impact:      "$40,000 - $90,000 per year",
		},
		maintain: models.Recommendation{
			Title:       "Maintain subcontractor reliability",
			Explanation: "Keep your reliable crews loyal with consistent work and prompt payment.",
			Impact:      "$10,000 - $25,000 per year",
		},
	},
	{
		section:   models.SectionRecruitment,
		threshold: 5,
		fix: models.Recommendation{
			Title:       "Build a bench of trades",
			Explanation: "Keep a shortlist of pre-vetted trades for every role so a vacancy never stops a job.",
			Impact:      "$25,000 - $60,000 per year",
		},
		maintain: models.Recommendation{
			Title:       "Keep your trade bench warm",
			Explanation: "Check in with your backup trades each quarter so they are ready when you need them.",
			Impact:      "$5,000 - $15,000 per year",
		},
	},
	{
		section:   models.SectionSystems,
		threshold: 5,
		fix: models.Recommendation{
			Title:       "Move labour scheduling into one system",
			Explanation: "Replace paper and spreadsheets with a single schedule every trade can see.",
			Impact:      "$20,000 - $50,000 per year",
		},
		maintain: models.Recommendation{
			Title:       "Use your labour data to plan ahead",
			Explanation: "Review hours against programme each month and book trades for the next quarter early.",
			Impact:      "$8,000 - $20,000 per year",
		},
	},
}

// leakProjections are the fixed labour leak ranges keyed by overall band.
var leakProjections = map[models.Color]models.LabourLeakProjection{
	models.ColorRed: {
		AnnualLeak:       "$150,000 - $300,000",
		ImprovementRange: "30% - 50%",
		TimeHorizon:      "6 - 12 months",
	},
	models.ColorAmber: {
		AnnualLeak:       "$75,000 - $150,000",
		ImprovementRange: "20% - 35%",
		TimeHorizon:      "3 - 6 months",
	},
	models.ColorGreen: {
		AnnualLeak:       "$20,000 - $75,000",
		ImprovementRange: "10% - 20%",
		TimeHorizon:      "1 - 3 months",
	},
}

// riskExplanations are the fixed risk profile lines keyed by overall band.
var riskExplanations = map[models.Color]string{
	models.ColorRed:   "High risk: labour problems are actively limiting growth and eroding margin on most jobs.",
	models.ColorAmber: "Moderate risk: your labour pipeline works, but gaps are costing you time and money every month.",
	models.ColorGreen: "Low risk: your labour pipeline is healthy. Focus on protecting what is working.",
}
