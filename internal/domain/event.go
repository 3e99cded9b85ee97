package domain

import (
	"context"
	"time"
)

// Event is one append-only client telemetry record. Events are never
// deduplicated or compacted.
type Event struct {
	ID             int64          `json:"id"`
	Type           string         `json:"event_type"`
	ConversationID string         `json:"conversation_id,omitempty"`
	SessionID      string         `json:"session_id,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// EventRepository persists telemetry events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
}
