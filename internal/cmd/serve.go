package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/harrison/labourcheck/internal/funnel"
	"github.com/harrison/labourcheck/internal/metrics"
	"github.com/harrison/labourcheck/internal/server"
)

// NewServeCommand creates the 'labourcheck serve' command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostic HTTP API",
		Long: `Serve the JSON API used by the web funnel, the tracked follow-up links
and Prometheus metrics on /metrics.

Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "Listen port (overrides server.port)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	repo, err := a.openRepo()
	if err != nil {
		return err
	}

	// Local PDFs are served by this process unless a public URL is configured.
	documentsDir := ""
	if cfg.Documents.PDFEnabled && cfg.Documents.Driver == "local" {
		documentsDir = cfg.Documents.LocalDir
		if cfg.Documents.PublicBaseURL == "" {
			cfg.Documents.PublicBaseURL = strings.TrimRight(cfg.Tracking.BaseURL, "/") + "/documents"
		}
	}

	del, err := a.buildDelivery(repo, m)
	if err != nil {
		return err
	}
	fn, err := funnel.New(funnel.Options{
		Catalog:      cat,
		Repo:         repo,
		Delivery:     del,
		LiveSessions: cfg.Server.LiveSessions,
		Logger:       a.log,
		Metrics:      m,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Funnel:       fn,
		FollowUps:    del,
		Config:       cfg.Server,
		DocumentsDir: documentsDir,
		Logger:       a.log,
		Metrics:      m,
		Gatherer:     reg,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
