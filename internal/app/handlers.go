package app

import (
	"github.com/yungbote/trailhead-backend/internal/http/admin"
	httpH "github.com/yungbote/trailhead-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trailhead-backend/internal/http/middleware"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	User      *httpH.UserHandler
	Catalog   *httpH.CatalogHandler
	Itinerary *httpH.ItineraryHandler
	CheckIn   *httpH.CheckInHandler
	Record    *httpH.RecordHandler
	Favorite  *httpH.FavoriteHandler
	Realtime  *httpH.RealtimeHandler

	Admin *admin.Handler
}

func wireMiddleware(log *logger.Logger, services Services, r Repos) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth, r.Profile),
	}
}

func wireHandlers(log *logger.Logger, services Services, c Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(c.DB),
		Auth:      httpH.NewAuthHandler(services.Auth),
		User:      httpH.NewUserHandler(services.Profile, services.Stats),
		Catalog:   httpH.NewCatalogHandler(services.Catalog),
		Itinerary: httpH.NewItineraryHandler(services.Itinerary),
		CheckIn:   httpH.NewCheckInHandler(services.CheckIn),
		Record:    httpH.NewRecordHandler(services.Record),
		Favorite:  httpH.NewFavoriteHandler(services.Favorite),
		Realtime:  httpH.NewRealtimeHandler(log, c.Hub),

		Admin: admin.NewHandler(log, services.AdminUsers, services.AdminCatalog, services.Auth),
	}
}
