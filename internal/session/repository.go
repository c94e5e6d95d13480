// Package session persists funnel sessions for the delivery collaborators.
//
// Sessions are looked up by ID or by the report owner's email, and every write is a
// partial merge: only fields present in the update are overwritten. This lets the phone
// number and conversion arrive before or after the report itself.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/harrison/labourcheck/internal/models"
)

// Repository stores sessions. Implementations are safe for concurrent use.
type Repository interface {
	// Get returns the session with id, or models.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)

	// GetByEmail returns the most recently updated session for email, or models.ErrSessionNotFound.
	GetByEmail(ctx context.Context, email string) (*models.Session, error)

	// Upsert creates the session if needed and merges the provided fields into it.
	Upsert(ctx context.Context, id string, update models.SessionUpdate) (*models.Session, error)

	// List returns sessions, newest first.
	List(ctx context.Context, opts ListOptions) ([]*models.Session, error)

	// RecordEvent appends a delivery event to the session's history.
	RecordEvent(ctx context.Context, sessionID string, kind EventKind, detail string) error

	// Events returns the session's history, oldest first.
	Events(ctx context.Context, sessionID string) ([]Event, error)

	Close() error
}

// ListOptions filters List.
type ListOptions struct {
	Limit         int  // 0 = no limit
	CompletedOnly bool // only sessions with a report
	ConvertedOnly bool // only converted sessions
}

// EventKind names a delivery step.
type EventKind string

// Delivery event kinds
const (
	EventReportStored   EventKind = "report_stored"
	EventEmailSent      EventKind = "email_sent"
	EventEmailFailed    EventKind = "email_failed"
	EventDocumentStored EventKind = "document_stored"
	EventDocumentFailed EventKind = "document_failed"
	EventPhoneReceived  EventKind = "phone_received"
	EventSMSSent        EventKind = "sms_sent"
	EventSMSFailed      EventKind = "sms_failed"
	EventConverted      EventKind = "converted"
)

// Event is one entry in a session's delivery history.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUpdate applies storage normalization to an update without mutating the caller's copy.
func normalizeUpdate(update models.SessionUpdate) models.SessionUpdate {
	if update.Email != nil {
		update.Email = models.String(NormalizeEmail(*update.Email))
	}
	return update
}

// matches reports whether s passes the list filter.
func (o ListOptions) matches(s *models.Session) bool {
	if o.CompletedOnly && !s.IsComplete() {
		return false
	}
	if o.ConvertedOnly && !s.Converted {
		return false
	}
	return true
}
