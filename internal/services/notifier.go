package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/realtime"
)

// HikingNotifier pushes best-effort change events to the owner's realtime channel.
// A nil notifier or emitter drops everything.
type HikingNotifier interface {
	RecordCreated(ctx context.Context, userID uuid.UUID, record *types.HikingRecord, failedMedia int)
	RecordDeleted(ctx context.Context, userID uuid.UUID, recordID uuid.UUID, itinerarySoftDeleted bool)
	ItineraryChanged(ctx context.Context, userID uuid.UUID, itinerary *types.Itinerary, change string)
	ProfileUpdated(ctx context.Context, userID uuid.UUID, profile *types.Profile)
}

type hikingNotifier struct {
	emit SSEEmitter
}

func NewHikingNotifier(emit SSEEmitter) HikingNotifier {
	return &hikingNotifier{emit: emit}
}

func (n *hikingNotifier) send(ctx context.Context, userID uuid.UUID, event realtime.Event, data map[string]any) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   event,
		Data:    data,
	})
}

func (n *hikingNotifier) RecordCreated(ctx context.Context, userID uuid.UUID, record *types.HikingRecord, failedMedia int) {
	if record == nil {
		return
	}
	n.send(ctx, userID, realtime.EventRecordCreated, map[string]any{
		"record_id":    record.ID,
		"itinerary_id": record.ItineraryID,
		"route_id":     record.RouteID,
		"failed_media": failedMedia,
	})
}

func (n *hikingNotifier) RecordDeleted(ctx context.Context, userID uuid.UUID, recordID uuid.UUID, itinerarySoftDeleted bool) {
	n.send(ctx, userID, realtime.EventRecordDeleted, map[string]any{
		"record_id":              recordID,
		"itinerary_soft_deleted": itinerarySoftDeleted,
	})
}

func (n *hikingNotifier) ItineraryChanged(ctx context.Context, userID uuid.UUID, itinerary *types.Itinerary, change string) {
	if itinerary == nil {
		return
	}
	n.send(ctx, userID, realtime.EventItineraryChanged, map[string]any{
		"itinerary_id": itinerary.ID,
		"status":       itinerary.Status,
		"change":       change,
	})
}

func (n *hikingNotifier) ProfileUpdated(ctx context.Context, userID uuid.UUID, profile *types.Profile) {
	if profile == nil {
		return
	}
	n.send(ctx, userID, realtime.EventProfileUpdated, map[string]any{"profile": profile})
}
