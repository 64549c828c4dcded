package types

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

const (
	CategoryCompanion = "COMPANION"
	CategoryItemGrant = "ITEM_GRANT"
)

const (
	EventTypeCompanionAdded              EventType = CategoryCompanion + "_ADDED"
	EventTypeCompanionRemoved            EventType = CategoryCompanion + "_REMOVED"
	EventTypeCompanionPermissionsChanged EventType = CategoryCompanion + "_PERMISSIONS_CHANGED"

	EventTypeItemGrantUpdated EventType = CategoryItemGrant + "_UPDATED"
	EventTypeItemGrantRemoved EventType = CategoryItemGrant + "_REMOVED"
)

// BaseEvent carries the metadata shared by every published event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TripID    string    `json:"tripId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// EventMetadata for tracking and debugging.
type EventMetadata struct {
	CorrelationID string `json:"correlationId,omitempty"`
	Source        string `json:"source"`
}

type Event struct {
	BaseEvent
	Metadata EventMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

// EventPublisher delivers permission-change events to interested backend
// consumers (the excluded notification layer, cache invalidators, etc.).
type EventPublisher interface {
	Publish(ctx context.Context, tripID string, event Event) error
}
