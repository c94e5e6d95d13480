// Package notify sends report emails, follow-up texts and ops notifications.
package notify

import (
	"context"
)

// Email is a single outbound message with an HTML body and a plain-text alternative.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers emails.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SMSSender delivers text messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EventKind names an ops notification.
type EventKind string

// Ops event kinds
const (
	EventNewLead   EventKind = "new_lead"
	EventConverted EventKind = "converted"
)

// Event is a notification for the ops channel.
type Event struct {
	Kind        EventKind
	SessionID   string
	Email       string
	BuilderName string
	Score       int
	Color       string
	URL         string
}

// Notifier posts ops events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
