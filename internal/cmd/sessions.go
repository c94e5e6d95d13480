package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/labourcheck/internal/display"
	"github.com/harrison/labourcheck/internal/export"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/session"
)

// NewSessionsCommand creates the 'labourcheck sessions' parent command
func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and export stored sessions",
		Long: `Commands for the sales team: list stored sessions, show one with its
report and delivery history, export leads to Excel and summarise conversion.`,
	}

	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsShowCommand())
	cmd.AddCommand(newSessionsExportCommand())
	cmd.AddCommand(newSessionsStatsCommand())

	return cmd
}

// withRepo loads the app, opens the session store and runs fn.
func withRepo(cmd *cobra.Command, fn func(a *app, repo session.Repository) error) error {
	a, err := loadApp(cmd, "warn")
	if err != nil {
		return err
	}
	defer a.Close()
	repo, err := a.openRepo()
	if err != nil {
		return err
	}
	return fn(a, repo)
}

func listOptions(cmd *cobra.Command) session.ListOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	completed, _ := cmd.Flags().GetBool("completed")
	converted, _ := cmd.Flags().GetBool("converted")
	return session.ListOptions{Limit: limit, CompletedOnly: completed, ConvertedOnly: converted}
}

func addListFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().Int("limit", defaultLimit, "Maximum number of sessions (0 = all)")
	cmd.Flags().Bool("completed", false, "Only sessions with a report")
	cmd.Flags().Bool("converted", false, "Only sessions whose follow-up link was opened")
}

func newSessionsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return withRepo(cmd, func(a *app, repo session.Repository) error {
				sessions, err := repo.List(commandContext(cmd), listOptions(cmd))
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				out := cmd.OutOrStdout()
				if format == "json" {
					return writeJSON(out, sessions)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions found.")
					return nil
				}
				printSessionTable(out, sessions, isTerminal(out))
				return nil
			})
		},
	}
	addListFlags(cmd, 20)
	cmd.Flags().String("format", "table", "Output format: table, json")
	return cmd
}

func printSessionTable(out io.Writer, sessions []*models.Session, colorize bool) {
	header := color.New(color.Bold)
	if colorize {
		header.EnableColor()
	} else {
		header.DisableColor()
	}
	header.Fprintf(out, "%-36s  %-16s  %-30s  %-7s  %-6s  %-15s  %s\n",
		"ID", "CREATED", "EMAIL", "SCORE", "COLOR", "PHONE", "CONVERTED")
	for _, s := range sessions {
		score, band := "-", "-"
		if s.IsComplete() {
			score = fmt.Sprintf("%d", s.OverallScore)
			band = string(s.ScoreColor)
		}
		converted := "no"
		if s.Converted {
			converted = "yes"
		}
		fmt.Fprintf(out, "%-36s  %-16s  %-30s  %-7s  %-6s  %-15s  %s\n",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(s.Email, 30), score, band, orDash(s.Phone), converted)
	}
}

func newSessionsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show one session with its report and delivery history",
		Long: `Show a stored session by id, or the most recent session for --email.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			format, _ := cmd.Flags().GetString("format")
			if (len(args) == 0) == (email == "") {
				return fmt.Errorf("give either a session id or --email")
			}
			return withRepo(cmd, func(a *app, repo session.Repository) error {
				ctx := commandContext(cmd)
				var (
					sess *models.Session
					err  error
				)
				if email != "" {
					sess, err = repo.GetByEmail(ctx, email)
				} else {
					sess, err = repo.Get(ctx, args[0])
				}
				if err != nil {
					return err
				}
				events, err := repo.Events(ctx, sess.ID)
				if err != nil {
					return fmt.Errorf("load events: %w", err)
				}

				out := cmd.OutOrStdout()
				if format == "json" {
					return writeJSON(out, struct {
						Session *models.Session `json:"session"`
						Events  []session.Event `json:"events"`
					}{sess, events})
				}
				printSession(out, sess, events, isTerminal(out))
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "Show the most recent session for this email")
	cmd.Flags().String("format", "text", "Output format: text, json")
	return cmd
}

func printSession(out io.Writer, s *models.Session, events []session.Event, colorize bool) {
	fmt.Fprintf(out, "Session:    %s\n", s.ID)
	fmt.Fprintf(out, "Email:      %s\n", orDash(s.Email))
	fmt.Fprintf(out, "Builder:    %s\n", orDash(s.BuilderName))
	fmt.Fprintf(out, "Phone:      %s\n", orDash(s.Phone))
	fmt.Fprintf(out, "Created:    %s\n", s.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Answers:    %d\n", len(s.Answers))
	fmt.Fprintf(out, "Report PDF: %s\n", orDash(s.DocumentURL))
	if s.Converted && s.ConvertedAt != nil {
		fmt.Fprintf(out, "Converted:  yes, %s\n", s.ConvertedAt.Local().Format(time.RFC1123))
	} else {
		fmt.Fprintf(out, "Converted:  no\n")
	}

	if s.IsComplete() {
		display.NewScorecard(colorize).Write(out, s.Report)
	} else {
		fmt.Fprintln(out, "\nNo report yet.")
	}

	if len(events) > 0 {
		fmt.Fprintf(out, "\nHistory:\n")
		for _, e := range events {
			fmt.Fprintf(out, "  %s  %-16s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Detail)
		}
	}
}

func newSessionsExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export sessions to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd, func(a *app, repo session.Repository) error {
				sessions, err := repo.List(commandContext(cmd), listOptions(cmd))
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				if err := export.Save(args[0], sessions); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(sessions), args[0])
				return nil
			})
		},
	}
	addListFlags(cmd, 0)
	return cmd
}

func newSessionsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise completion and conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd, func(a *app, repo session.Repository) error {
				sessions, err := repo.List(commandContext(cmd), session.ListOptions{})
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				sum := export.Summarize(sessions)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sessions:        %d\n", sum.Sessions)
				fmt.Fprintf(out, "Completed:       %d\n", sum.Completed)
				fmt.Fprintf(out, "With phone:      %d\n", sum.WithPhone)
				fmt.Fprintf(out, "Converted:       %d\n", sum.Converted)
				fmt.Fprintf(out, "Conversion rate: %.1f%%\n", sum.ConversionRate()*100)
				fmt.Fprintf(out, "Average score:   %.1f\n", sum.AverageScore)
				fmt.Fprintf(out, "Bands:           green %d, amber %d, red %d\n",
					sum.ByColor[models.ColorGreen], sum.ByColor[models.ColorAmber], sum.ByColor[models.ColorRed])
				return nil
			})
		},
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
