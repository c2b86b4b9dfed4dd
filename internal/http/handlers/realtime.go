package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/events streams the caller's record, itinerary and profile events.
func (h *RealtimeHandler) Events(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	client := h.hub.NewClient(userID)
	h.hub.AddChannel(client, realtime.UserChannel(userID))
	h.log.Debug("SSE stream open", "user_id", userID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("SSE stream closed", "user_id", userID, "client_id", client.ID)
}
