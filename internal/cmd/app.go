package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/config"
	"github.com/harrison/labourcheck/internal/delivery"
	"github.com/harrison/labourcheck/internal/logger"
	"github.com/harrison/labourcheck/internal/metrics"
	"github.com/harrison/labourcheck/internal/notify"
	"github.com/harrison/labourcheck/internal/session"
	"github.com/harrison/labourcheck/internal/storage"
	"github.com/harrison/labourcheck/internal/tracking"
)

// app holds the configuration and shared collaborators of one command invocation.
type app struct {
	home    string
	cfg     *config.Config
	log     logger.Logger
	closers []func() error
}

// loadApp resolves the home directory, loads config and secrets, applies flag
// overrides and builds the logger. consoleLevel overrides the console log level
// unless --log-level was given.
func loadApp(cmd *cobra.Command, consoleLevel string) (*app, error) {
	home, _ := cmd.Flags().GetString("home")
	if home == "" {
		var err error
		home, err = config.GetHome()
		if err != nil {
			return nil, fmt.Errorf("resolve labourcheck home: %w", err)
		}
	} else if err := os.MkdirAll(home, 0755); err != nil {
		return nil, fmt.Errorf("create labourcheck home: %w", err)
	}

	cfg, err := config.LoadConfigFromHome(home)
	if err != nil {
		return nil, err
	}
	cfg.MergeWithFlags(
		changedString(cmd, "log-level"),
		changedString(cmd, "store-driver"),
		changedString(cmd, "store-path"),
		changedString(cmd, "host"),
		changedInt(cmd, "port"),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{home: home, cfg: cfg}

	level := cfg.LogLevel
	if consoleLevel != "" && !cmd.Flags().Changed("log-level") {
		level = consoleLevel
	}
	loggers := []logger.Logger{logger.NewConsoleLogger(cmd.ErrOrStderr(), level)}
	if cfg.LogDir != "" {
		fl, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel, logger.FileOptions{Compress: true})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fl.Close)
		loggers = append(loggers, fl)
	}
	a.log = logger.NewMultiLogger(loggers...)
	return a, nil
}

func changedString(cmd *cobra.Command, name string) *string {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		v := f.Value.String()
		return &v
	}
	return nil
}

func changedInt(cmd *cobra.Command, name string) *int {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		if v, err := cmd.Flags().GetInt(name); err == nil {
			return &v
		}
	}
	return nil
}

// Close releases everything the app opened, last first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.LogWarn(fmt.Sprintf("close: %v", err))
		}
	}
	a.closers = nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	if a.cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(a.cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", a.cfg.CatalogPath, err)
	}
	return cat, nil
}

func (a *app) openRepo() (session.Repository, error) {
	var (
		repo session.Repository
		err  error
	)
	switch a.cfg.Store.Driver {
	case "memory":
		repo = session.NewMemoryStore()
	case "mysql":
		repo, err = session.Open("mysql", a.cfg.Store.DSN)
	default:
		repo, err = session.Open("sqlite3", a.cfg.Store.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.closers = append(a.closers, repo.Close)
	return repo, nil
}

// buildDelivery wires the outbound collaborators from config. Disabled channels
// fall back to log-only implementations.
func (a *app) buildDelivery(repo session.Repository, m *metrics.Metrics) (*delivery.Service, error) {
	cfg := a.cfg

	var mailer notify.Mailer = notify.LogMailer{Log: a.log}
	if cfg.Email.Enabled {
		smtp, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Secrets.SMTPUsername,
			Password: cfg.Secrets.SMTPPassword,
			From:     cfg.Email.From,
		})
		if err != nil {
			return nil, err
		}
		mailer = smtp
	}

	var sms notify.SMSSender = notify.LogSMSSender{Log: a.log}
	if cfg.SMS.Enabled {
		sender, err := notify.NewHTTPSMSSender(notify.HTTPSMSConfig{
			GatewayURL: cfg.SMS.GatewayURL,
			Token:      cfg.Secrets.SMSToken,
			From:       cfg.SMS.From,
		})
		if err != nil {
			return nil, err
		}
		sms = sender
	}

	var ops notify.Notifier = notify.LogNotifier{Log: a.log}
	if cfg.Discord.Enabled {
		d, err := notify.NewDiscordNotifier(cfg.Secrets.DiscordToken, cfg.Discord.ChannelID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, d.Close)
		ops = d
	}

	var docs storage.DocumentStore
	if cfg.Documents.PDFEnabled {
		var err error
		docs, err = a.documentStore()
		if err != nil {
			return nil, err
		}
	}

	secret := cfg.Secrets.TrackingSecret
	if secret == "" {
		secret = randomSecret()
		a.log.LogWarn("LABOURCHECK_TRACKING_SECRET is not set; follow-up links will not survive a restart")
	}
	signer, err := tracking.NewSigner(secret, cfg.Tracking.BaseURL, cfg.Tracking.TTL)
	if err != nil {
		return nil, err
	}

	return delivery.New(delivery.Options{
		Repo:      repo,
		Mailer:    mailer,
		SMS:       sms,
		Ops:       ops,
		Documents: docs,
		Links:     signer,
		Logger:    a.log,
		Metrics:   m,
	})
}

func (a *app) documentStore() (storage.DocumentStore, error) {
	d := a.cfg.Documents
	if d.Driver == "s3" {
		return storage.NewS3Store(storage.S3Options{
			Endpoint:   d.S3.Endpoint,
			Region:     d.S3.Region,
			Key:        a.cfg.Secrets.S3Key,
			Secret:     a.cfg.Secrets.S3Secret,
			Bucket:     d.S3.Bucket,
			Prefix:     d.S3.Prefix,
			Expiration: d.S3.Expiration,
		})
	}
	return storage.NewLocalStore(d.LocalDir, d.PublicBaseURL)
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

type fdHolder interface {
	Fd() uintptr
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(fdHolder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
