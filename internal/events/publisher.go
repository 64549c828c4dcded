package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TrailParty/trail-party-backend/internal/utils"
	"github.com/TrailParty/trail-party-backend/types"
)

// PublishEventWithContext is a helper to publish events with a consistent
// structure. It builds a standard types.Event and publishes it using the
// provided publisher.
func PublishEventWithContext(publisher types.EventPublisher, ctx context.Context, eventType types.EventType, tripID string, userID string, data map[string]interface{}, source string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := types.Event{
		BaseEvent: types.BaseEvent{
			ID:        utils.GenerateEventID(),
			Type:      eventType,
			TripID:    tripID,
			UserID:    userID,
			Timestamp: time.Now(),
			Version:   1,
		},
		Metadata: types.EventMetadata{
			Source: source,
		},
		Payload: payload,
	}

	if err := publisher.Publish(ctx, tripID, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
