// Package metrics exports funnel activity to Prometheus.
//
// All methods are safe on a nil *Metrics, so callers can run without metrics.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "labourcheck"

// Metrics holds the funnel collectors.
type Metrics struct {
	sessionsStarted  prometheus.Counter
	answers          prometheus.Counter
	reports          *prometheus.CounterVec
	overallScore     prometheus.Histogram
	deliverySteps    *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	conversions      prometheus.Counter
	liveSessions     prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg (the default registerer when nil).
// Collectors already registered by an earlier call are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Diagnostic sessions started.",
		}),
		answers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers accepted across all sessions.",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_completed_total",
			Help:      "Completed diagnostics by overall score color.",
		}, []string{"color"}),
		overallScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of overall scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}),
		deliverySteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_steps_total",
			Help:      "Delivery collaborator calls by step and outcome.",
		}, []string{"step", "outcome"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_step_duration_seconds",
			Help:      "Latency of delivery collaborator calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Tracked follow-up links opened.",
		}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Conversation states held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	var err error
	if m.sessionsStarted, err = register(reg, m.sessionsStarted); err != nil {
		return nil, err
	}
	if m.answers, err = register(reg, m.answers); err != nil {
		return nil, err
	}
	if m.reports, err = register(reg, m.reports); err != nil {
		return nil, err
	}
	if m.overallScore, err = register(reg, m.overallScore); err != nil {
		return nil, err
	}
	if m.deliverySteps, err = register(reg, m.deliverySteps); err != nil {
		return nil, err
	}
	if m.deliveryDuration, err = register(reg, m.deliveryDuration); err != nil {
		return nil, err
	}
	if m.conversions, err = register(reg, m.conversions); err != nil {
		return nil, err
	}
	if m.liveSessions, err = register(reg, m.liveSessions); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is New that panics on registration failure.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// register registers c, returning the existing collector when an equal one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// SessionStarted counts a new session.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// AnswerAccepted counts an accepted answer.
func (m *Metrics) AnswerAccepted() {
	if m == nil {
		return
	}
	m.answers.Inc()
}

// ReportCompleted records a finished diagnostic.
func (m *Metrics) ReportCompleted(overall int, color string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(color).Inc()
	m.overallScore.Observe(float64(overall))
}

// DeliveryStep records a delivery collaborator call.
func (m *Metrics) DeliveryStep(step string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.deliverySteps.WithLabelValues(step, outcome).Inc()
	m.deliveryDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// Converted counts an opened follow-up link.
func (m *Metrics) Converted() {
	if m == nil {
		return
	}
	m.conversions.Inc()
}

// SetLiveSessions reports how many conversation states are held.
func (m *Metrics) SetLiveSessions(n int) {
	if m == nil {
		return
	}
	m.liveSessions.Set(float64(n))
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}
