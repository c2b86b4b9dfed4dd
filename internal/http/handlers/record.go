package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type RecordHandler struct {
	records services.RecordService
}

func NewRecordHandler(records services.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// GET /api/records
func (h *RecordHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.records.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": list})
}

// GET /api/records/:id
func (h *RecordHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.records.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}

// DELETE /api/records/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.records.Delete(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, res)
}
