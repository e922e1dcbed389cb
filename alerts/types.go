package alerts

import (
	"encoding/json"
	"fmt"
	"time"
)

/**
 * Mailer defines the outbound transport the dispatcher delivers through.
 * One call sends one message to one recipient; the dispatcher handles
 * fan-out and failure isolation across recipients.
 *
 * Implementations:
 *   - email.Sender: sends via SMTP (plain or TLS)
 */
type Mailer interface {
	Send(subject, body, recipient string) error
}

// Record is the structured log event handed to the dispatcher.
// Only Level and Message contribute to the dedup signature; Meta is
// carried along for the email body.
type Record struct {
	Time    time.Time         `json:"timestamp"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Body renders the record as the alert email body. Records that cannot
// be encoded are still forwarded as opaque text rather than dropped.
func (r Record) Body() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%s: %s", r.Level, r.Message)
	}
	return string(b)
}

type Config struct {
	// Name is the application name included in every subject line.
	Name string
	// Window is the notification window. Repeated occurrences of one
	// signature inside the window are counted but not re-alerted.
	// Zero disables batching entirely.
	Window time.Duration
	// Recipients receive one independent message per send decision.
	Recipients []string
}
