package realtime

import "github.com/google/uuid"

type Event string

const (
	EventRecordCreated    Event = "RecordCreated"
	EventRecordDeleted    Event = "RecordDeleted"
	EventItineraryChanged Event = "ItineraryChanged"
	EventProfileUpdated   Event = "ProfileUpdated"
)

// Message is what travels over the bus and out to SSE clients. Channel is the
// recipient's user id.
type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

func UserChannel(userID uuid.UUID) string { return userID.String() }
