package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type FavoriteHandler struct {
	favorites services.FavoriteService
}

func NewFavoriteHandler(favorites services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// GET /api/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.favorites.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"favorites": list})
}

// POST /api/favorites  body: {"route_id": "..."}
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		RouteID uuid.UUID `json:"route_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	fav, err := h.favorites.Add(c.Request.Context(), userID, req.RouteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"favorite": fav})
}

// DELETE /api/favorites/:routeId
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "routeId")
	if !ok {
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), userID, routeID); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
