// Package funnel drives diagnostic sessions from first question to delivered report.
//
// Live conversation states sit in a bounded LRU keyed by session ID. Each entry has
// its own mutex, so requests for one session are serialized while different sessions
// never contend. Answers are persisted as they arrive; a state evicted from the cache
// (or lost to a restart) is rebuilt from the repository on the next request. An entry
// stays held while a request is using it, so eviction mid-request never lets a second
// request rebuild the session from an older record.
package funnel

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/harrison/labourcheck/internal/catalog"
	"github.com/harrison/labourcheck/internal/conversation"
	"github.com/harrison/labourcheck/internal/logger"
	"github.com/harrison/labourcheck/internal/metrics"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/report"
	"github.com/harrison/labourcheck/internal/scoring"
	"github.com/harrison/labourcheck/internal/session"
)

// DefaultLiveSessions is the LRU size when none is configured.
const DefaultLiveSessions = 1024

var (
	// ErrInvalidEmail is returned by Start when the email address cannot be parsed.
	ErrInvalidEmail = errors.New("a valid email address is required")

	// ErrReportNotReady is returned by Report until the last answer is in.
	ErrReportNotReady = errors.New("report not ready")
)

// Deliverer receives finished reports. *delivery.Service satisfies it.
type Deliverer interface {
	DeliverReport(ctx context.Context, sessionID string, answers []models.Answer, rep models.Report) error
}

// Options configures a Service. Catalog, Repo and Delivery are required.
type Options struct {
	Catalog      *catalog.Catalog
	Repo         session.Repository
	Delivery     Deliverer
	LiveSessions int
	Logger       logger.Logger
	Metrics      *metrics.Metrics
}

// Service runs funnel sessions.
type Service struct {
	cat      *catalog.Catalog
	repo     session.Repository
	delivery Deliverer
	live     *lru.Cache[string, *entry]
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string

	heldMu sync.Mutex
	held   map[string]*holding
}

// holding pins an entry while requests use it.
type holding struct {
	e *entry
	n int
}

type entry struct {
	mu       sync.Mutex
	state    *conversation.State
	identity models.Identity
	report   *models.Report
}

// Started is returned by Start.
type Started struct {
	SessionID string           `json:"sessionId"`
	Question  *models.Question `json:"question"`
	Progress  models.Progress  `json:"progress"`
}

// Step is the outcome of an accepted answer.
type Step struct {
	Kind     conversation.StepKind `json:"kind"`
	Question *models.Question      `json:"question,omitempty"`
	Progress models.Progress       `json:"progress"`
	Report   *models.Report        `json:"report,omitempty"`

	// DeliveryErr is set when the report was built but handing it off failed.
	DeliveryErr error `json:"-"`
}

// Status describes where a session stands.
type Status struct {
	SessionID string           `json:"sessionId"`
	Question  *models.Question `json:"question,omitempty"`
	Progress  models.Progress  `json:"progress"`
	Complete  bool             `json:"complete"`
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("funnel: %w: no catalog", models.ErrMisconfiguredCatalog)
	}
	if opts.Repo == nil {
		return nil, fmt.Errorf("funnel: session repository is required")
	}
	if opts.Delivery == nil {
		return nil, fmt.Errorf("funnel: report delivery is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.LiveSessions <= 0 {
		opts.LiveSessions = DefaultLiveSessions
	}

	s := &Service{
		cat:      opts.Catalog,
		repo:     opts.Repo,
		delivery: opts.Delivery,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		held:     make(map[string]*holding),
	}
	live, err := lru.NewWithEvict[string, *entry](opts.LiveSessions, func(id string, _ *entry) {
		s.log.LogTrace(fmt.Sprintf("session %s evicted from live cache", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create live session cache: %w", err)
	}
	s.live = live
	return s, nil
}

// Catalog returns the question catalog the funnel runs.
func (s *Service) Catalog() *catalog.Catalog {
	return s.cat
}

// Live returns how many conversation states are held in memory.
func (s *Service) Live() int {
	return s.live.Len()
}

// Start opens a session for identity and returns the first question.
func (s *Service) Start(ctx context.Context, identity models.Identity) (*Started, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(identity.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, identity.Email)
	}
	identity.Email = session.NormalizeEmail(addr.Address)
	identity.BuilderName = strings.TrimSpace(identity.BuilderName)

	id := s.newID()
	if _, err := s.repo.Upsert(ctx, id, models.SessionUpdate{
		Email:       models.String(identity.Email),
		BuilderName: models.String(identity.BuilderName),
	}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e := &entry{state: conversation.New(s.cat), identity: identity}
	s.live.Add(id, e)
	s.metrics.SessionStarted()
	s.metrics.SetLiveSessions(s.live.Len())
	s.log.LogSessionStart(id, identity.Email)

	q, _ := e.state.Current()
	return &Started{SessionID: id, Question: &q, Progress: e.state.Progress()}, nil
}

// Answer submits raw text for questionID. When it completes the diagnostic the
// report is scored, assembled and handed to delivery before returning.
func (s *Service) Answer(ctx context.Context, sessionID string, questionID int, text string) (*Step, error) {
	e, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.state.SubmitAnswerFor(questionID, text)
	if err != nil {
		return nil, err
	}
	progress := e.state.Progress()
	s.metrics.AnswerAccepted()
	s.log.LogAnswer(sessionID, questionID, progress)

	if next.Kind == conversation.KindQuestion {
		if _, err := s.repo.Upsert(ctx, sessionID, models.SessionUpdate{Answers: e.state.Answers()}); err != nil {
			s.log.LogWarn(fmt.Sprintf("persist answers for %s: %v", sessionID, err))
		}
		return &Step{Kind: next.Kind, Question: next.Question, Progress: progress}, nil
	}

	answers := e.state.Answers()
	rep := report.BuildAt(scoring.ComputeScores(s.cat, answers), e.identity, s.now())
	e.report = &rep
	s.metrics.ReportCompleted(rep.OverallScore, string(rep.ScoreColor))
	s.log.LogComplete(sessionID, rep)

	step := &Step{Kind: next.Kind, Progress: progress, Report: &rep}
	if err := s.delivery.DeliverReport(ctx, sessionID, answers, rep); err != nil {
		s.log.LogError(fmt.Sprintf("deliver report for %s: %v", sessionID, err))
		step.DeliveryErr = err
	}
	return step, nil
}

// Status returns the current question and progress for a session.
func (s *Service) Status(ctx context.Context, sessionID string) (*Status, error) {
	e, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()
	e.mu.Lock()
	defer e.mu.Unlock()

	st := &Status{SessionID: sessionID, Progress: e.state.Progress(), Complete: e.state.IsTerminal()}
	if q, ok := e.state.Current(); ok {
		st.Question = &q
	}
	return st, nil
}

// Report returns the finished report, or ErrReportNotReady.
func (s *Service) Report(ctx context.Context, sessionID string) (*models.Report, error) {
	e, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.report == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrReportNotReady)
	}
	rep := *e.report
	return &rep, nil
}

// Forget drops a session's live state. The stored record is untouched.
func (s *Service) Forget(sessionID string) {
	s.live.Remove(sessionID)
	s.metrics.SetLiveSessions(s.live.Len())
}

// acquire returns the entry for sessionID and holds it until release is called.
// A held entry wins over a fresh restore, even after it was evicted from the cache.
func (s *Service) acquire(ctx context.Context, sessionID string) (*entry, func(), error) {
	release := func() { s.unhold(sessionID) }
	if e, ok := s.hold(sessionID, nil); ok {
		return e, release, nil
	}
	e, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	held, _ := s.hold(sessionID, e)
	if held != e {
		s.live.Add(sessionID, held)
	}
	return held, release, nil
}

// hold bumps the hold count of the entry held for sessionID. When none is held
// and e is not nil, e becomes the held entry.
func (s *Service) hold(sessionID string, e *entry) (*entry, bool) {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	if h, ok := s.held[sessionID]; ok {
		h.n++
		return h.e, true
	}
	if e == nil {
		return nil, false
	}
	s.held[sessionID] = &holding{e: e, n: 1}
	return e, true
}

func (s *Service) unhold(sessionID string) {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	h, ok := s.held[sessionID]
	if !ok {
		return
	}
	h.n--
	if h.n <= 0 {
		delete(s.held, sessionID)
	}
}

// entry returns the live state for sessionID, rebuilding it from the repository on a miss.
func (s *Service) entry(ctx context.Context, sessionID string) (*entry, error) {
	if e, ok := s.live.Get(sessionID); ok {
		return e, nil
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := conversation.Restore(s.cat, sess.Answers)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	e := &entry{
		state:    state,
		identity: models.Identity{Email: sess.Email, BuilderName: sess.BuilderName},
		report:   sess.Report,
	}

	// another request may have restored it meanwhile
	if prev, ok, _ := s.live.PeekOrAdd(sessionID, e); ok {
		return prev, nil
	}
	s.metrics.SetLiveSessions(s.live.Len())
	s.log.LogDebug(fmt.Sprintf("session %s restored with %d answers", sessionID, len(sess.Answers)))
	return e, nil
}
