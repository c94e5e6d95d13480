package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/labourcheck/internal/models"
)

const barWidth = 20

// Bar renders answered/total as a fixed-width bar, e.g. "[#####---------------]".
func Bar(answered, total, width int) string {
	if width <= 0 {
		width = barWidth
	}
	filled := 0
	if total > 0 {
		filled = answered * width / total
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// QuestionProgress prints each question of an interactive run with its position.
type QuestionProgress struct {
	writer io.Writer
	total  int
	head   *color.Color
	done   *color.Color
}

// NewQuestionProgress creates a progress printer for a catalog of total questions.
func NewQuestionProgress(w io.Writer, total int, colorize bool) *QuestionProgress {
	p := &QuestionProgress{
		writer: w,
		total:  total,
		head:   color.New(color.FgCyan, color.Bold),
		done:   color.New(color.FgGreen),
	}
	if colorize {
		p.head.EnableColor()
		p.done.EnableColor()
	} else {
		p.head.DisableColor()
		p.done.DisableColor()
	}
	return p
}

// Start prints the intro line.
func (p *QuestionProgress) Start() {
	fmt.Fprintf(p.writer, "Labour pipeline check: %d questions\n", p.total)
}

// Show prints "[N/Total] Section" followed by the prompt and its options.
func (p *QuestionProgress) Show(q models.Question, progress models.Progress) {
	fmt.Fprintln(p.writer)
	p.head.Fprintf(p.writer, "[%d/%d] %s", progress.Answered+1, p.total, q.Section.Title())
	fmt.Fprintf(p.writer, " %s\n", Bar(progress.Answered, p.total, barWidth))
	fmt.Fprintf(p.writer, "%s\n", q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(p.writer, "  %d) %s\n", i+1, opt.Label)
	}
}

// Complete prints the success line.
func (p *QuestionProgress) Complete() {
	p.done.Fprint(p.writer, "✓")
	fmt.Fprintf(p.writer, " Answered all %d questions\n", p.total)
}
