package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type Repos struct {
	// Identity
	UserAccount repos.UserAccountRepo
	UserToken   repos.UserTokenRepo
	Profile     repos.ProfileRepo

	// Catalog
	City         repos.CityRepo
	Route        repos.RouteRepo
	Tag          repos.TagRepo
	RouteTag     repos.RouteTagRepo
	RouteSection repos.RouteSectionRepo

	// Hiking
	Itinerary      repos.ItineraryRepo
	HikingRecord   repos.HikingRecordRepo
	Media          repos.MediaRepo
	Favorite       repos.FavoriteRepo
	CheckInAttempt repos.CheckInAttemptRepo

	// Compensation ledger
	SagaRun    repos.SagaRunRepo
	SagaAction repos.SagaActionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		UserAccount: repos.NewUserAccountRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Profile:     repos.NewProfileRepo(db, log),

		City:         repos.NewCityRepo(db, log),
		Route:        repos.NewRouteRepo(db, log),
		Tag:          repos.NewTagRepo(db, log),
		RouteTag:     repos.NewRouteTagRepo(db, log),
		RouteSection: repos.NewRouteSectionRepo(db, log),

		Itinerary:      repos.NewItineraryRepo(db, log),
		HikingRecord:   repos.NewHikingRecordRepo(db, log),
		Media:          repos.NewMediaRepo(db, log),
		Favorite:       repos.NewFavoriteRepo(db, log),
		CheckInAttempt: repos.NewCheckInAttemptRepo(db, log),

		SagaRun:    repos.NewSagaRunRepo(db, log),
		SagaAction: repos.NewSagaActionRepo(db, log),
	}
}
