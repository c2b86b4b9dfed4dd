package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	multipartMemory      = 32 << 20
)

type CheckInHandler struct {
	checkIns services.CheckInService
}

func NewCheckInHandler(checkIns services.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns}
}

// POST /api/check-ins (multipart/form-data)
//
// Fields: route_id or itinerary_id, completed_at, feelings, distance, duration,
// idempotency_key (or the Idempotency-Key header) and any number of "files".
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("parse form: %w", err))
		return
	}

	req := services.CheckInRequest{
		UserID:         userID,
		Feelings:       c.PostForm("feelings"),
		Distance:       c.PostForm("distance"),
		Duration:       c.PostForm("duration"),
		IdempotencyKey: strings.TrimSpace(c.GetHeader(headerIdempotencyKey)),
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(c.PostForm("idempotency_key"))
	}
	var err error
	if req.RouteID, err = optionalUUID(c.PostForm("route_id")); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, fmt.Errorf("route_id: %w", err))
		return
	}
	if req.ItineraryID, err = optionalUUID(c.PostForm("itinerary_id")); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, fmt.Errorf("itinerary_id: %w", err))
		return
	}
	if req.CompletedAt, err = parseDate(c.PostForm("completed_at")); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, err)
		return
	}
	if c.Request.MultipartForm != nil {
		for _, fh := range c.Request.MultipartForm.File["files"] {
			req.Files = append(req.Files, uploadFromHeader(fh))
		}
	}

	res, err := h.checkIns.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func uploadFromHeader(fh *multipart.FileHeader) services.MediaUpload {
	return services.MediaUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func optionalUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
