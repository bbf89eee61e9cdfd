package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the versioned event wrapper published to NATS.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	TenantID      string          `json:"tenant_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// ObjectCreatedEvent is emitted after a create call has been submitted to
// the billing platform. StatusCode carries the raw HTTP status; the adapter
// does not interpret create responses.
type ObjectCreatedEvent struct {
	TenantID   string    `json:"tenant_id"`
	RequestID  uuid.UUID `json:"request_id"`
	ObjectType string    `json:"object_type"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}
