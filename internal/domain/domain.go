package domain

import (
	"github.com/yungbote/trailhead-backend/internal/domain/auth"
	"github.com/yungbote/trailhead-backend/internal/domain/catalog"
	"github.com/yungbote/trailhead-backend/internal/domain/hiking"
	"github.com/yungbote/trailhead-backend/internal/domain/jobs"
	"github.com/yungbote/trailhead-backend/internal/domain/user"
)

const (
	RoleUser  = user.RoleUser
	RoleAdmin = user.RoleAdmin

	ProfileStatusActive   = user.StatusActive
	ProfileStatusDisabled = user.StatusDisabled

	RouteStatusActive  = catalog.RouteStatusActive
	RouteStatusOffline = catalog.RouteStatusOffline

	MinDifficulty = catalog.MinDifficulty
	MaxDifficulty = catalog.MaxDifficulty

	ItineraryPending   = hiking.ItineraryPending
	ItineraryCompleted = hiking.ItineraryCompleted

	MediaImage = hiking.MediaImage
	MediaVideo = hiking.MediaVideo

	AttemptInProgress = hiking.AttemptInProgress
	AttemptCompleted  = hiking.AttemptCompleted
	AttemptFailed     = hiking.AttemptFailed
)

type Profile = user.Profile

type UserAccount = auth.UserAccount
type UserToken = auth.UserToken

type City = catalog.City
type Route = catalog.Route
type Tag = catalog.Tag
type RouteTag = catalog.RouteTag
type RouteSection = catalog.RouteSection

type Itinerary = hiking.Itinerary
type HikingRecord = hiking.HikingRecord
type Media = hiking.Media
type Favorite = hiking.Favorite
type CheckInAttempt = hiking.CheckInAttempt

type SagaRun = jobs.SagaRun
type SagaAction = jobs.SagaAction

var ClampDifficulty = catalog.ClampDifficulty
