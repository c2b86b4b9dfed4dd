package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type ItineraryHandler struct {
	itineraries services.ItineraryService
}

func NewItineraryHandler(itineraries services.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itineraries: itineraries}
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

// GET /api/itineraries
func (h *ItineraryHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.itineraries.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"itineraries": list})
}

// POST /api/itineraries  body: {"route_id": "...", "planned_date": "2026-05-01"}
func (h *ItineraryHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		RouteID     uuid.UUID `json:"route_id"`
		PlannedDate string    `json:"planned_date"`
	}
	if !bindJSON(c, &req) {
		return
	}
	planned, err := parseDate(req.PlannedDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, err)
		return
	}
	it, err := h.itineraries.Plan(c.Request.Context(), userID, req.RouteID, planned)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"itinerary": it})
}

// DELETE /api/itineraries/:id[?mode=hard]
func (h *ItineraryHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	mode, err := services.ParseDeleteMode(c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.itineraries.DeleteForUser(c.Request.Context(), userID, id, mode); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "mode": mode})
}
