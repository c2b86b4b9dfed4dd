package services

import (
	"context"

	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/realtime"
	"github.com/yungbote/trailhead-backend/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

// HubEmitter delivers to clients connected to this process only.
type HubEmitter struct{ Hub *realtime.Hub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.Message) {
	e.Hub.Broadcast(msg)
}

// BusEmitter fans out through the bus so every replica's hub sees the message.
type BusEmitter struct {
	Bus bus.Bus
	Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("realtime publish failed", "event", msg.Event, "error", err)
	}
}
