package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
)

// Error writes err with the status and code it carries; untyped errors are 500s.
func Error(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	code := apierr.CodeOf(err)
	if code == "" {
		code = "internal"
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, status, code, err)
}

// AdminEnvelope is the admin API error body: a plain message string.
type AdminEnvelope struct {
	Error string `json:"error"`
}

func AdminError(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, AdminEnvelope{Error: msg})
}

// AdminServiceError is AdminError with the status taken from err.
func AdminServiceError(c *gin.Context, err error) {
	AdminError(c, apierr.StatusOf(err), err)
}
