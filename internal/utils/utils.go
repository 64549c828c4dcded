package utils

import (
	"time"

	"github.com/google/uuid"
)

// GenerateEventID creates a unique, roughly time-sortable ID for events.
func GenerateEventID() string {
	return time.Now().UTC().Format("20060102150405") + "-" + uuid.New().String()[:8]
}
