package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/labourcheck/internal/conversation"
	"github.com/harrison/labourcheck/internal/display"
	"github.com/harrison/labourcheck/internal/funnel"
	"github.com/harrison/labourcheck/internal/logger"
	"github.com/harrison/labourcheck/internal/models"
)

// NewTakeCommand creates the 'labourcheck take' command
func NewTakeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take the diagnostic in the terminal",
		Long: `Walk through every question in order, then print the scorecard.

Answer with an option number or free text. The finished session is stored
and the report is delivered with the configured email and document settings.

When input is not a terminal, answers are read one per line and --email is required.

Examples:
  labourcheck take
  labourcheck take --email owner@acme.test --builder "Acme Homes"
  labourcheck take --email owner@acme.test < answers.txt`,
		Args: cobra.NoArgs,
		RunE: runTake,
	}

	cmd.Flags().String("email", "", "Email address the report is sent to")
	cmd.Flags().String("builder", "", "Builder or business name")
	cmd.Flags().String("phone", "", "Phone number for the follow-up text")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

func runTake(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	repo, err := a.openRepo()
	if err != nil {
		return err
	}
	del, err := a.buildDelivery(repo, nil)
	if err != nil {
		return err
	}
	svc, err := funnel.New(funnel.Options{Catalog: cat, Repo: repo, Delivery: del, Logger: a.log})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())
	interactive := isTerminal(cmd.InOrStdin())
	noColor, _ := cmd.Flags().GetBool("no-color")
	colorize := !noColor && isTerminal(out)

	email, _ := cmd.Flags().GetString("email")
	builder, _ := cmd.Flags().GetString("builder")
	if email == "" {
		if !interactive {
			return fmt.Errorf("--email is required when input is not a terminal")
		}
		if email, err = prompt(in, out, "Email for your report: "); err != nil {
			return err
		}
	}
	if builder == "" && interactive {
		if builder, err = prompt(in, out, "Business name (optional): "); err != nil {
			return err
		}
	}

	started, err := svc.Start(ctx, models.Identity{Email: email, BuilderName: builder})
	if err != nil {
		return err
	}

	progress := display.NewQuestionProgress(out, cat.Len(), colorize)
	progress.Start()

	q, p := started.Question, started.Progress
	for {
		progress.Show(*q, p)
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("input ended before question %d was answered", q.ID)
		}

		step, err := svc.Answer(ctx, started.SessionID, q.ID, resolveChoice(*q, line))
		if errors.Is(err, models.ErrInvalidAnswer) {
			fmt.Fprintln(out, "Please enter an answer.")
			continue
		}
		if err != nil {
			return err
		}
		if step.Kind == conversation.KindComplete {
			progress.Complete()
			display.NewScorecard(colorize).Write(out, step.Report)
			if step.DeliveryErr != nil {
				display.WarnDelivery(step.DeliveryErr).Display(cmd.ErrOrStderr())
			}
			break
		}
		q, p = step.Question, step.Progress
	}

	phone, _ := cmd.Flags().GetString("phone")
	step := phoneStep{
		submit:      del,
		log:         a.log,
		in:          in,
		out:         out,
		errOut:      cmd.ErrOrStderr(),
		interactive: interactive,
	}
	step.run(ctx, started.SessionID, phone)

	fmt.Fprintf(out, "\nSession %s saved.\n", started.SessionID)
	return nil
}

// phoneSubmitter records the follow-up phone number. *delivery.Service satisfies it.
type phoneSubmitter interface {
	SubmitPhone(ctx context.Context, sessionID, phone string) (*models.Session, error)
}

// phoneStep offers the follow-up call once the report is out. It never fails the
// command: the session is already saved by the time it runs.
type phoneStep struct {
	submit      phoneSubmitter
	log         logger.Logger
	in          *bufio.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
}

const phonePrompt = "\nPhone number for a free review call (blank to skip): "

func (p phoneStep) run(ctx context.Context, sessionID, phone string) {
	if phone == "" && p.interactive {
		phone, _ = prompt(p.in, p.out, phonePrompt)
	}
	for phone != "" {
		_, err := p.submit.SubmitPhone(ctx, sessionID, phone)
		switch {
		case err == nil:
			fmt.Fprintln(p.out, "We'll text you a link to book your review.")
			return
		case errors.Is(err, models.ErrInvalidPhone) && p.interactive:
			fmt.Fprintln(p.out, "That number can't receive texts. Use digits with an optional leading +.")
			phone, _ = prompt(p.in, p.out, phonePrompt)
		case errors.Is(err, models.ErrInvalidPhone):
			display.Warning{
				Title:      "Phone number not saved",
				Message:    err.Error(),
				Suggestion: "Use 7 to 15 digits with an optional leading +",
			}.Display(p.errOut)
			return
		default:
			p.log.LogWarn(fmt.Sprintf("follow-up text failed: %v", err))
			return
		}
	}
}

// resolveChoice turns an option number into that option's text. Anything else passes through.
func resolveChoice(q models.Question, line string) string {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(q.Options) {
		return line
	}
	opt := q.Options[n-1]
	if opt.Value != "" {
		return opt.Value
	}
	return opt.Label
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := readLine(in)
	return strings.TrimSpace(line), err
}

// readLine returns the next line without its terminator. A final line without
// a newline is returned; io.EOF only when nothing was read.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
