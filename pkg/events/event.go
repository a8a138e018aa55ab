// Package events publishes agent activity (session lifecycle, booking
// submissions) to an event stream. Publishing is best effort: callers log
// failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeLogin            = "session.login"
	TypeLogout           = "session.logout"
	TypeForcedLogout     = "session.forced_logout"
	TypeRefreshFailed    = "session.refresh_failed"
	TypeBookingSubmitted = "booking.submitted"
)

// Header keys carried on every published message.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderSchemaVersion = "schema-version"
	HeaderTimestamp     = "timestamp"

	SchemaVersion = "1"
	Source        = "afribook-client"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New builds an event keyed by agent id so all of one agent's events share
// a partition.
func New(eventType, agentID string, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        agentID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
