package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type Services struct {
	// Core
	Avatar   services.AvatarService
	Notifier services.HikingNotifier
	Saga     services.SagaService

	// Auth + profile
	Auth    services.AuthService
	Profile services.ProfileService
	Stats   services.StatsService

	// Catalog + hiking
	Catalog   services.CatalogService
	Itinerary services.ItineraryService
	CheckIn   services.CheckInService
	Record    services.RecordService
	Favorite  services.FavoriteService

	// Admin
	AdminUsers   services.AdminUserService
	AdminCatalog services.AdminCatalogService
	Seeder       *services.CatalogSeeder
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	avatars, err := services.NewAvatarService(log, c.Bucket, services.AvatarConfig{
		ColorsJSONPath: cfg.AvatarColorsPath,
		FontPath:       cfg.AvatarFontPath,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	notifier := services.NewHikingNotifier(&services.BusEmitter{Bus: c.Bus, Log: log})
	saga := services.NewSagaService(db, log, r.SagaRun, r.SagaAction, c.Bucket, c.Metrics)

	auth := services.NewAuthService(db, log, r.UserAccount, r.Profile, r.UserToken, avatars, services.AuthConfig{
		JWTSecretKey:         cfg.JWTSecretKey,
		AccessTTL:            cfg.AccessTokenTTL,
		RefreshTTL:           cfg.RefreshTokenTTL,
		ResetTTL:             cfg.ResetTokenTTL,
		SecurityAnswerPepper: cfg.SecurityAnswerPepper,
	})
	profile := services.NewProfileService(log, r.UserAccount, r.Profile, avatars, notifier, services.ProfileConfig{
		UpdateTimeout:        cfg.ProfileUpdateTimeout,
		SecurityAnswerPepper: cfg.SecurityAnswerPepper,
	})

	itinerary := services.NewItineraryService(db, log, r.Itinerary, r.HikingRecord, r.Route, notifier)
	checkIn := services.NewCheckInService(
		db, log,
		itinerary,
		r.Itinerary, r.HikingRecord, r.Media, r.Route, r.CheckInAttempt,
		saga,
		c.Bucket,
		c.Locker,
		notifier,
		c.Metrics,
		services.CheckInConfig{LockTTL: cfg.CheckInLockTTL},
	)
	record := services.NewRecordService(db, log, r.HikingRecord, r.Media, r.Itinerary, itinerary, saga, notifier, c.Metrics)

	return Services{
		Avatar:   avatars,
		Notifier: notifier,
		Saga:     saga,

		Auth:    auth,
		Profile: profile,
		Stats:   services.NewStatsService(log, r.HikingRecord, r.Itinerary, r.Favorite),

		Catalog:   services.NewCatalogService(log, r.City, r.Route, r.Tag),
		Itinerary: itinerary,
		CheckIn:   checkIn,
		Record:    record,
		Favorite:  services.NewFavoriteService(log, r.Favorite, r.Route),

		AdminUsers:   services.NewAdminUserService(db, log, r.UserAccount, r.Profile, r.UserToken, r.Itinerary, avatars, c.Metrics),
		AdminCatalog: services.NewAdminCatalogService(db, log, r.City, r.Route, r.Tag, r.RouteTag, r.RouteSection, c.Metrics),
		Seeder:       services.NewCatalogSeeder(db, log, r.City, r.Route, r.Tag, r.RouteTag, r.RouteSection),
	}, nil
}
