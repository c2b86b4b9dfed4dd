// Package admin serves the management API: users, routes, cities and tags.
package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type Handler struct {
	log     *logger.Logger
	users   services.AdminUserService
	catalog services.AdminCatalogService
	auth    services.AuthService
}

func NewHandler(log *logger.Logger, users services.AdminUserService, catalog services.AdminCatalogService, auth services.AuthService) *Handler {
	return &Handler{
		log:     log.With("handler", "AdminHandler"),
		users:   users,
		catalog: catalog,
		auth:    auth,
	}
}

func listQuery(c *gin.Context, filters ...string) repos.ListQuery {
	q := repos.ListQuery{Search: c.Query("search")}
	q.Page, _ = strconv.Atoi(strings.TrimSpace(c.Query("page")))
	q.Limit, _ = strconv.Atoi(strings.TrimSpace(c.Query("limit")))
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

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.AdminError(c, http.StatusBadRequest, errors.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.AdminError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

// POST /api/auth/check-email
func (h *Handler) CheckEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Email) == "" {
		response.AdminError(c, http.StatusBadRequest, errors.New("email is required"))
		return
	}
	exists, err := h.auth.EmailExists(c.Request.Context(), req.Email)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// ---- users ----

func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), listQuery(c, "status", "role"))
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in services.AdminUserInput
	if !bind(c, &in) {
		return
	}
	u, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user created", "user": u})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.AdminUserUpdate
	if !bind(c, &in) {
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated", "user": u})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// ---- routes ----

func (h *Handler) ListRoutes(c *gin.Context) {
	page, err := h.catalog.ListRoutes(c.Request.Context(), listQuery(c, "status", "difficulty", "city_id"))
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) CreateRoute(c *gin.Context) {
	var in services.RouteInput
	if !bind(c, &in) {
		return
	}
	r, err := h.catalog.CreateRoute(c.Request.Context(), in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "route created", "route": r})
}

func (h *Handler) UpdateRoute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.RouteInput
	if !bind(c, &in) {
		return
	}
	r, err := h.catalog.UpdateRoute(c.Request.Context(), id, in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "route updated", "route": r})
}

func (h *Handler) DeleteRoute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteRoute(c.Request.Context(), id); err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "route deleted"})
}

// ---- cities ----

func (h *Handler) ListCities(c *gin.Context) {
	page, err := h.catalog.ListCities(c.Request.Context(), listQuery(c, "district"))
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) CreateCity(c *gin.Context) {
	var in services.CityInput
	if !bind(c, &in) {
		return
	}
	city, err := h.catalog.CreateCity(c.Request.Context(), in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "city created", "city": city})
}

func (h *Handler) UpdateCity(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.CityInput
	if !bind(c, &in) {
		return
	}
	city, err := h.catalog.UpdateCity(c.Request.Context(), id, in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "city updated", "city": city})
}

func (h *Handler) DeleteCity(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteCity(c.Request.Context(), id); err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "city deleted"})
}

// ---- tags ----

func (h *Handler) ListTags(c *gin.Context) {
	page, err := h.catalog.ListTags(c.Request.Context(), listQuery(c))
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AllTags(c *gin.Context) {
	tags, err := h.catalog.AllTags(c.Request.Context())
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tags})
}

func (h *Handler) CreateTag(c *gin.Context) {
	var in services.TagInput
	if !bind(c, &in) {
		return
	}
	tag, err := h.catalog.CreateTag(c.Request.Context(), in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "tag created", "tag": tag})
}

func (h *Handler) UpdateTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.TagInput
	if !bind(c, &in) {
		return
	}
	tag, err := h.catalog.UpdateTag(c.Request.Context(), id, in)
	if err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tag updated", "tag": tag})
}

func (h *Handler) DeleteTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteTag(c.Request.Context(), id); err != nil {
		response.AdminServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tag deleted"})
}
