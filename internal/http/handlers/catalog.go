package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/cities
func (h *CatalogHandler) ListCities(c *gin.Context) {
	cities, err := h.catalog.ListCities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cities": cities})
}

// GET /api/cities/:id
func (h *CatalogHandler) GetCity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	city, err := h.catalog.GetCity(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"city": city})
}

// GET /api/cities/:id/routes
func (h *CatalogHandler) ListCityRoutes(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	routes, err := h.catalog.ListRoutesByCity(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"routes": routes})
}

// GET /api/routes/:id
func (h *CatalogHandler) GetRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	route, err := h.catalog.GetRoute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"route": route})
}

// GET /api/tags
func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}
