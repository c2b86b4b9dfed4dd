package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailhead-backend/internal/services"
)

// uuidParam parses a path parameter, writing a 400 and returning false on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated caller; RequireAuth guarantees one on protected routes.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id := ctxutil.UserID(c.Request.Context())
	if id == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, fmt.Errorf("not authenticated"))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// listQuery reads page, limit and search plus the named exact-match filters.
func listQuery(c *gin.Context, filters ...string) repos.ListQuery {
	q := repos.ListQuery{
		Page:   atoiDefault(c.Query("page"), 1),
		Limit:  atoiDefault(c.Query("limit"), 0),
		Search: c.Query("search"),
	}
	for _, f := range filters {
		if v := strings.TrimSpace(c.Query(f)); v != "" {
			if q.Filters == nil {
				q.Filters = map[string]string{}
			}
			q.Filters[f] = v
		}
	}
	return q.Normalize()
}

func atoiDefault(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}
