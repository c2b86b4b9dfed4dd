package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/auth"
	"github.com/yungbote/trailhead-backend/internal/data/repos/catalog"
	"github.com/yungbote/trailhead-backend/internal/data/repos/hiking"
	"github.com/yungbote/trailhead-backend/internal/data/repos/jobs"
	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	"github.com/yungbote/trailhead-backend/internal/data/repos/user"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type ListQuery = paging.ListQuery
type RecordStats = hiking.RecordStats

type UserAccountRepo = auth.UserAccountRepo
type UserTokenRepo = auth.UserTokenRepo
type ProfileRepo = user.ProfileRepo

type CityRepo = catalog.CityRepo
type RouteRepo = catalog.RouteRepo
type TagRepo = catalog.TagRepo
type RouteTagRepo = catalog.RouteTagRepo
type RouteSectionRepo = catalog.RouteSectionRepo

type ItineraryRepo = hiking.ItineraryRepo
type HikingRecordRepo = hiking.HikingRecordRepo
type MediaRepo = hiking.MediaRepo
type FavoriteRepo = hiking.FavoriteRepo
type CheckInAttemptRepo = hiking.CheckInAttemptRepo

type SagaRunRepo = jobs.SagaRunRepo
type SagaActionRepo = jobs.SagaActionRepo

func NewUserAccountRepo(db *gorm.DB, baseLog *logger.Logger) UserAccountRepo {
	return auth.NewUserAccountRepo(db, baseLog)
}
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}
func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return user.NewProfileRepo(db, baseLog)
}

func NewCityRepo(db *gorm.DB, baseLog *logger.Logger) CityRepo { return catalog.NewCityRepo(db, baseLog) }
func NewRouteRepo(db *gorm.DB, baseLog *logger.Logger) RouteRepo {
	return catalog.NewRouteRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo { return catalog.NewTagRepo(db, baseLog) }
func NewRouteTagRepo(db *gorm.DB, baseLog *logger.Logger) RouteTagRepo {
	return catalog.NewRouteTagRepo(db, baseLog)
}
func NewRouteSectionRepo(db *gorm.DB, baseLog *logger.Logger) RouteSectionRepo {
	return catalog.NewRouteSectionRepo(db, baseLog)
}

func NewItineraryRepo(db *gorm.DB, baseLog *logger.Logger) ItineraryRepo {
	return hiking.NewItineraryRepo(db, baseLog)
}
func NewHikingRecordRepo(db *gorm.DB, baseLog *logger.Logger) HikingRecordRepo {
	return hiking.NewHikingRecordRepo(db, baseLog)
}
func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo { return hiking.NewMediaRepo(db, baseLog) }
func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	return hiking.NewFavoriteRepo(db, baseLog)
}
func NewCheckInAttemptRepo(db *gorm.DB, baseLog *logger.Logger) CheckInAttemptRepo {
	return hiking.NewCheckInAttemptRepo(db, baseLog)
}

func NewSagaRunRepo(db *gorm.DB, baseLog *logger.Logger) SagaRunRepo {
	return jobs.NewSagaRunRepo(db, baseLog)
}
func NewSagaActionRepo(db *gorm.DB, baseLog *logger.Logger) SagaActionRepo {
	return jobs.NewSagaActionRepo(db, baseLog)
}
