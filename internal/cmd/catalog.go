package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/display"
)

// NewCatalogCommand creates the 'labourcheck catalog' parent command
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show or validate question catalogs",
	}
	cmd.AddCommand(newCatalogShowCommand())
	cmd.AddCommand(newCatalogValidateCommand())
	return cmd
}

func newCatalogShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active question catalog",
		Long: `Print the catalog the funnel runs: catalog_path from config, or the built-in
catalog. The yaml format can be edited and loaded back with catalog_path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, "warn")
			if err != nil {
				return err
			}
			defer a.Close()
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "yaml":
				b, err := yaml.Marshal(cat)
				if err != nil {
					return fmt.Errorf("marshal catalog: %w", err)
				}
				_, err = out.Write(b)
				return err
			case "text":
				for _, q := range cat.Questions() {
					fmt.Fprintf(out, "%d. [%s] %s\n", q.ID, q.Section.Title(), q.Prompt)
					for _, opt := range q.Options {
						if opt.Score != nil {
							fmt.Fprintf(out, "     - %s (%d)\n", opt.Label, *opt.Score)
						} else {
							fmt.Fprintf(out, "     - %s\n", opt.Label)
						}
					}
				}
				return nil
			default:
				return fmt.Errorf("unknown format %q, must be one of: text, yaml", format)
			}
		},
	}
	cmd.Flags().String("format", "text", "Output format: text, yaml")
	return cmd
}

func newCatalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog.yaml>",
		Short: "Check a catalog file before pointing catalog_path at it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				display.Warning{
					Title:      "Catalog is not usable",
					Message:    err.Error(),
					Suggestion: "Question ids must run 1..N in order, each question needs a prompt, a known section and options, and every section needs a question",
				}.Display(cmd.ErrOrStderr())
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid: %d questions covering %d sections\n",
				args[0], cat.Len(), len(cat.Sections()))
			return nil
		},
	}
}
