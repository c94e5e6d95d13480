package notify

import (
	"context"
	"fmt"

	"github.com/harrison/labourcheck/internal/logger"
)

// LogMailer logs emails instead of sending them. Used when email is disabled.
type LogMailer struct {
	Log logger.Logger
}

// Send implements Mailer.
func (m LogMailer) Send(ctx context.Context, msg Email) error {
	m.Log.LogInfo(fmt.Sprintf("email disabled, would send %q to %s (%d bytes html)", msg.Subject, msg.To, len(msg.HTML)))
	return nil
}

// LogSMSSender logs texts instead of sending them.
type LogSMSSender struct {
	Log logger.Logger
}

// SendSMS implements SMSSender.
func (s LogSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.Log.LogInfo(fmt.Sprintf("sms disabled, would text %s: %s", to, body))
	return nil
}

// LogNotifier logs ops events at DEBUG.
type LogNotifier struct {
	Log logger.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, event Event) error {
	n.Log.LogDebug(fmt.Sprintf("ops event %s session=%s score=%d", event.Kind, event.SessionID, event.Score))
	return nil
}
