package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/http"
)

func routerConfig(a *App) http.RouterConfig {
	h := a.Handlers
	return http.RouterConfig{
		Log:                 a.Log,
		Metrics:             a.Clients.Metrics,
		CORSOrigins:         a.Cfg.CORSOrigins,
		MaxBodyBytes:        a.Cfg.MaxBodyBytes,
		CheckInMaxBodyBytes: a.Cfg.CheckInMaxBody,
		TracingEnabled:      a.Cfg.TracingEnabled,

		AuthMiddleware: a.Middleware.Auth,

		HealthHandler:    h.Health,
		AuthHandler:      h.Auth,
		UserHandler:      h.User,
		CatalogHandler:   h.Catalog,
		ItineraryHandler: h.Itinerary,
		CheckInHandler:   h.CheckIn,
		RecordHandler:    h.Record,
		FavoriteHandler:  h.Favorite,
		RealtimeHandler:  h.Realtime,

		AdminHandler: h.Admin,
	}
}

func wireRouter(a *App) *gin.Engine {
	return http.NewRouter(routerConfig(a))
}

func wireAdminRouter(a *App) *gin.Engine {
	return http.NewAdminRouter(routerConfig(a))
}
