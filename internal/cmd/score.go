package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/display"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/report"
	"github.com/harrison/labourcheck/internal/scoring"
)

// answersFile is the YAML layout read by 'labourcheck score'. Answers is either a
// list in catalog order or a map of question id to answer text.
type answersFile struct {
	Email       string    `yaml:"email"`
	BuilderName string    `yaml:"builderName"`
	Answers     yaml.Node `yaml:"answers"`
}

// NewScoreCommand creates the 'labourcheck score' command
func NewScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <answers.yaml>",
		Short: "Score a set of answers without storing or sending anything",
		Long: `Score answers from a YAML file and print the report.

The file holds either an ordered list or a map keyed by question id:

  builderName: Acme Homes
  answers:
    - "8+ projects"
    - "70-100%"

  answers:
    1: "8+ projects"
    3: "Rarely"

Unanswered questions leave their section at the neutral score.`,
		Args: cobra.ExactArgs(1),
		RunE: runScore,
	}

	cmd.Flags().String("format", "text", "Output format: text, json, markdown, html")
	cmd.Flags().Bool("breakdown", false, "Show which option matched each question")

	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read answers file: %w", err)
	}
	identity, answers, err := parseAnswers(cat, data)
	if err != nil {
		return err
	}

	scores, matches := scoring.ComputeWithMatches(cat, answers)
	rep := report.Build(scores, identity)
	out := cmd.OutOrStdout()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text":
		display.NewScorecard(isTerminal(out)).Write(out, &rep)
	case "json":
		b, err := report.RenderJSON(&rep)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	case "markdown":
		fmt.Fprint(out, report.RenderMarkdown(&rep))
	case "html":
		html, err := report.RenderHTML(&rep)
		if err != nil {
			return err
		}
		fmt.Fprint(out, html)
	default:
		return fmt.Errorf("unknown format %q, must be one of: text, json, markdown, html", format)
	}

	if breakdown, _ := cmd.Flags().GetBool("breakdown"); breakdown {
		printBreakdown(out, cat, matches)
	}
	return nil
}

func parseAnswers(cat *catalog.Catalog, data []byte) (models.Identity, []models.Answer, error) {
	var f answersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return models.Identity{}, nil, fmt.Errorf("parse answers file: %w", err)
	}
	identity := models.Identity{Email: f.Email, BuilderName: f.BuilderName}

	switch f.Answers.Kind {
	case yaml.SequenceNode:
		var texts []string
		if err := f.Answers.Decode(&texts); err != nil {
			return identity, nil, fmt.Errorf("parse answers list: %w", err)
		}
		if len(texts) > cat.Len() {
			return identity, nil, fmt.Errorf("answers file has %d answers, catalog has %d questions", len(texts), cat.Len())
		}
		return identity, scoring.OrderedAnswers(cat, texts), nil
	case yaml.MappingNode:
		var byID map[int]string
		if err := f.Answers.Decode(&byID); err != nil {
			return identity, nil, fmt.Errorf("parse answers map: %w", err)
		}
		var answers []models.Answer
		for _, q := range cat.Questions() {
			if text, ok := byID[q.ID]; ok {
				answers = append(answers, models.Answer{QuestionID: q.ID, Text: text})
				delete(byID, q.ID)
			}
		}
		if len(byID) > 0 {
			unknown := make([]int, 0, len(byID))
			for id := range byID {
				unknown = append(unknown, id)
			}
			sort.Ints(unknown)
			return identity, nil, fmt.Errorf("answers file references unknown question %d", unknown[0])
		}
		return identity, answers, nil
	default:
		return identity, nil, fmt.Errorf("answers file must contain an 'answers' list or map")
	}
}

func printBreakdown(out io.Writer, cat *catalog.Catalog, matches []scoring.Match) {
	fmt.Fprintf(out, "\nScoring breakdown:\n")
	for _, m := range matches {
		q, _ := cat.ByID(m.QuestionID)
		switch {
		case !m.Answered:
			fmt.Fprintf(out, "  Q%-3d %-26s not answered\n", m.QuestionID, q.Section.Title())
		case m.Option == nil:
			fmt.Fprintf(out, "  Q%-3d %-26s no option matched\n", m.QuestionID, q.Section.Title())
		case m.Option.Score == nil:
			fmt.Fprintf(out, "  Q%-3d %-26s matched %q (unscored)\n", m.QuestionID, q.Section.Title(), m.Option.Label)
		default:
			fmt.Fprintf(out, "  Q%-3d %-26s matched %q -> %d\n", m.QuestionID, q.Section.Title(), m.Option.Label, *m.Option.Score)
		}
	}
}
