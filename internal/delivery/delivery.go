// Package delivery hands a finished report to the outside world: it persists the
// session, emails the report, stores the PDF, texts the follow-up link and records
// the conversion when that link is opened.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/labourcheck/internal/logger"
	"github.com/harrison/labourcheck/internal/metrics"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/notify"
	"github.com/harrison/labourcheck/internal/report"
	"github.com/harrison/labourcheck/internal/session"
	"github.com/harrison/labourcheck/internal/storage"
)

// Delivery step names used in logs, metrics and session events.
const (
	StepStore    = "store"
	StepEmail    = "email"
	StepDocument = "document"
	StepNotify   = "notify"
	StepSMS      = "sms"
	StepConvert  = "convert"
)

// LinkIssuer creates and verifies tracked follow-up links. *tracking.Signer satisfies it.
type LinkIssuer interface {
	Link(sessionID string) (string, error)
	Verify(token string) (string, error)
}

// Options wires the service's collaborators. Repo, Mailer, SMS and Links are required.
// Documents is optional; when nil no PDF is produced.
type Options struct {
	Repo      session.Repository
	Mailer    notify.Mailer
	SMS       notify.SMSSender
	Ops       notify.Notifier
	Documents storage.DocumentStore
	Links     LinkIssuer
	Logger    logger.Logger
	Metrics   *metrics.Metrics
}

// Service runs report delivery and follow-up tracking.
type Service struct {
	repo    session.Repository
	mailer  notify.Mailer
	sms     notify.SMSSender
	ops     notify.Notifier
	docs    storage.DocumentStore
	links   LinkIssuer
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New validates opts and creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("delivery: session repository is required")
	}
	if opts.Mailer == nil {
		return nil, fmt.Errorf("delivery: mailer is required")
	}
	if opts.SMS == nil {
		return nil, fmt.Errorf("delivery: sms sender is required")
	}
	if opts.Links == nil {
		return nil, fmt.Errorf("delivery: link issuer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Ops == nil {
		opts.Ops = notify.LogNotifier{Log: opts.Logger}
	}
	return &Service{
		repo:    opts.Repo,
		mailer:  opts.Mailer,
		sms:     opts.SMS,
		ops:     opts.Ops,
		docs:    opts.Documents,
		links:   opts.Links,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Repository returns the session repository the service writes to.
func (s *Service) Repository() session.Repository {
	return s.repo
}

// DeliverReport persists the finished session and sends the report.
//
// A failure to persist is returned immediately. Otherwise the email and the PDF
// run concurrently; their failures are combined into one multierror. The ops
// notification is best effort and never fails the call.
func (s *Service) DeliverReport(ctx context.Context, sessionID string, answers []models.Answer, rep models.Report) error {
	start := time.Now()
	_, err := s.repo.Upsert(ctx, sessionID, models.SessionUpdate{
		Email:       models.String(rep.Email),
		BuilderName: models.String(rep.BuilderName),
		Answers:     answers,
		Report:      &rep,
	})
	s.step(ctx, sessionID, StepStore, start, err, "")
	if err != nil {
		return fmt.Errorf("store session %s: %w", sessionID, err)
	}

	var emailErr, docErr error
	var docURL string
	var g errgroup.Group
	g.Go(func() error {
		emailErr = s.sendReportEmail(ctx, sessionID, &rep)
		return nil
	})
	if s.docs != nil {
		g.Go(func() error {
			docURL, docErr = s.storeDocument(ctx, sessionID, &rep)
			return nil
		})
	}
	g.Wait()

	var result *multierror.Error
	if emailErr != nil {
		result = multierror.Append(result, fmt.Errorf("send report email: %w", emailErr))
	}
	if docErr != nil {
		result = multierror.Append(result, fmt.Errorf("store report document: %w", docErr))
	}

	s.notifyOps(ctx, notify.Event{
		Kind:        notify.EventNewLead,
		SessionID:   sessionID,
		Email:       rep.Email,
		BuilderName: rep.BuilderName,
		Score:       rep.OverallScore,
		Color:       string(rep.ScoreColor),
		URL:         docURL,
	})

	return result.ErrorOrNil()
}

func (s *Service) sendReportEmail(ctx context.Context, sessionID string, rep *models.Report) error {
	start := time.Now()
	html, err := report.RenderHTML(rep)
	if err == nil {
		err = s.mailer.Send(ctx, notify.Email{
			To:      rep.Email,
			Subject: fmt.Sprintf("Your labour pipeline report: %d/100", rep.OverallScore),
			HTML:    html,
			Text:    report.RenderMarkdown(rep),
		})
	}
	s.step(ctx, sessionID, StepEmail, start, err, rep.Email)
	return err
}

func (s *Service) storeDocument(ctx context.Context, sessionID string, rep *models.Report) (string, error) {
	start := time.Now()
	url, err := s.renderAndPut(ctx, sessionID, rep)
	if err == nil {
		_, err = s.repo.Upsert(ctx, sessionID, models.SessionUpdate{DocumentURL: models.String(url)})
	}
	s.step(ctx, sessionID, StepDocument, start, err, url)
	if err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) renderAndPut(ctx context.Context, sessionID string, rep *models.Report) (string, error) {
	pdf, err := report.RenderPDF(rep)
	if err != nil {
		return "", err
	}
	key, err := documentKey(sessionID)
	if err != nil {
		return "", err
	}
	return s.docs.Put(ctx, key, pdf, "application/pdf")
}

// documentKey returns an unguessable object key for a session's PDF.
func documentKey(sessionID string) (string, error) {
	suffix, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 10)
	if err != nil {
		return "", fmt.Errorf("generate document key: %w", err)
	}
	return fmt.Sprintf("reports/%s-%s.pdf", sessionID, suffix), nil
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// NormalizePhone strips common separators and validates the result:
// an optional leading "+" followed by 7 to 15 digits.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if !phonePattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidPhone, raw)
	}
	return cleaned, nil
}

// SubmitPhone records the phone number and texts the tracked follow-up link.
// The session row is created if the report has not been stored yet.
func (s *Service) SubmitPhone(ctx context.Context, sessionID, phone string) (*models.Session, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	sess, err := s.repo.Upsert(ctx, sessionID, models.SessionUpdate{Phone: models.String(normalized)})
	if err != nil {
		return nil, fmt.Errorf("store phone for %s: %w", sessionID, err)
	}
	s.record(ctx, sessionID, session.EventPhoneReceived, normalized)

	start := time.Now()
	link, err := s.links.Link(sessionID)
	if err == nil {
		err = s.sms.SendSMS(ctx, normalized, followUpText(sess, link))
	}
	s.step(ctx, sessionID, StepSMS, start, err, normalized)
	if err != nil {
		return sess, fmt.Errorf("send follow-up sms: %w", err)
	}
	return sess, nil
}

func followUpText(sess *models.Session, link string) string {
	greeting := "Thanks"
	if sess.BuilderName != "" {
		greeting = "Thanks " + sess.BuilderName
	}
	if sess.IsComplete() {
		return fmt.Sprintf("%s! Your labour pipeline score is %d/100. Book your free review: %s",
			greeting, sess.OverallScore, link)
	}
	return fmt.Sprintf("%s! Book your free labour pipeline review: %s", greeting, link)
}

// RecordFollowUp verifies a tracked-link token and marks the session converted.
// Opening the link again leaves the first conversion time in place.
func (s *Service) RecordFollowUp(ctx context.Context, token string) (*models.Session, error) {
	sessionID, err := s.links.Verify(token)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, sessionID)
	switch {
	case err == nil && existing.Converted:
		return existing, nil
	case err != nil && !errors.Is(err, models.ErrSessionNotFound):
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	start := time.Now()
	now := s.now()
	sess, err := s.repo.Upsert(ctx, sessionID, models.SessionUpdate{
		Converted:   models.Bool(true),
		ConvertedAt: &now,
	})
	s.step(ctx, sessionID, StepConvert, start, err, "")
	if err != nil {
		return nil, fmt.Errorf("mark %s converted: %w", sessionID, err)
	}
	s.metrics.Converted()

	s.notifyOps(ctx, notify.Event{
		Kind:        notify.EventConverted,
		SessionID:   sessionID,
		Email:       sess.Email,
		BuilderName: sess.BuilderName,
		Score:       sess.OverallScore,
		Color:       string(sess.ScoreColor),
	})
	return sess, nil
}

func (s *Service) notifyOps(ctx context.Context, event notify.Event) {
	start := time.Now()
	err := s.ops.Notify(ctx, event)
	s.metrics.DeliveryStep(StepNotify, time.Since(start), err)
	if err != nil {
		s.log.LogDelivery(event.SessionID, StepNotify, err)
	}
}

// step logs, measures and records the outcome of one delivery step.
func (s *Service) step(ctx context.Context, sessionID, name string, start time.Time, err error, detail string) {
	s.metrics.DeliveryStep(name, time.Since(start), err)
	s.log.LogDelivery(sessionID, name, err)

	events, ok := stepEvents[name]
	if !ok {
		return
	}
	kind := events.ok
	if err != nil {
		kind, detail = events.failed, err.Error()
	}
	if kind != "" {
		s.record(ctx, sessionID, kind, detail)
	}
}

// stepEvents maps a step to the session events recorded on success and failure.
var stepEvents = map[string]struct{ ok, failed session.EventKind }{
	StepStore:    {ok: session.EventReportStored},
	StepEmail:    {ok: session.EventEmailSent, failed: session.EventEmailFailed},
	StepDocument: {ok: session.EventDocumentStored, failed: session.EventDocumentFailed},
	StepSMS:      {ok: session.EventSMSSent, failed: session.EventSMSFailed},
	StepConvert:  {ok: session.EventConverted},
}

func (s *Service) record(ctx context.Context, sessionID string, kind session.EventKind, detail string) {
	if err := s.repo.RecordEvent(ctx, sessionID, kind, detail); err != nil {
		s.log.LogWarn(fmt.Sprintf("record %s event for %s: %v", kind, sessionID, err))
	}
}
