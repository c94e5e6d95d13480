package display

import (
	"fmt"
	"io"
	"strings"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Details    []string // Individual problems (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("\x1b[33m")
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, d := range w.Details {
		b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, d))
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	b.WriteString("\x1b[0m")
	fmt.Fprint(out, b.String())
}

// WarnDelivery builds the warning shown when a completed report could not be fully delivered.
func WarnDelivery(err error) Warning {
	return Warning{
		Title:      "Report delivery incomplete",
		Message:    "Your score was saved but some follow-up steps failed.",
		Details:    splitLines(err.Error()),
		Suggestion: "Check the email and document settings, then run 'labourcheck sessions show' for the stored report",
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
