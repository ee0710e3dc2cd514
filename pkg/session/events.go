package session

import "time"

// Event types published by the Manager.
const (
	EventLoggedIn         = "logged_in"
	EventCertificateAdded = "certificate_added"
	EventDocumentRendered = "document_rendered"
	EventLoggedOut        = "logged_out"
	EventExpired          = "session_expired"
)

// Event describes a session state change.
type Event struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"sessionId"`
	Mobile      string    `json:"-"`
	TIP         string    `json:"tip,omitempty"`
	Pending     int       `json:"pending"`
	Pages       int       `json:"pages,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher receives session events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f.
func (f PublisherFunc) Publish(e Event) { f(e) }
