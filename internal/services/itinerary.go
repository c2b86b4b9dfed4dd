package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type DeleteMode string

const (
	DeleteModeSoft DeleteMode = "soft"
	DeleteModeHard DeleteMode = "hard"
)

// ParseDeleteMode accepts "", "soft" and "hard"; empty means soft.
func ParseDeleteMode(raw string) (DeleteMode, error) {
	switch DeleteMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DeleteModeSoft:
		return DeleteModeSoft, nil
	case DeleteModeHard:
		return DeleteModeHard, nil
	default:
		return "", ValidationError("unknown delete mode %q", raw)
	}
}

// ItineraryService owns the Pending -> Completed lifecycle. Status never moves back and
// deletion is a separate soft flag, so listings only ever filter on deleted_at.
type ItineraryService interface {
	Plan(ctx context.Context, userID, routeID uuid.UUID, plannedDate time.Time) (*types.Itinerary, error)
	// BackfillCompleted creates an itinerary that starts Completed (a hike logged without a plan).
	BackfillCompleted(dbc dbctx.Context, userID, routeID uuid.UUID, plannedDate time.Time) (*types.Itinerary, error)
	// Complete is idempotent: an already Completed itinerary is returned unchanged.
	Complete(dbc dbctx.Context, itineraryID uuid.UUID) (*types.Itinerary, error)
	DeleteItinerary(dbc dbctx.Context, itineraryID uuid.UUID, mode DeleteMode) error
	// DeleteForUser is DeleteItinerary behind an ownership check.
	DeleteForUser(ctx context.Context, userID, itineraryID uuid.UUID, mode DeleteMode) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Itinerary, error)
}

type itineraryService struct {
	db          *gorm.DB
	log         *logger.Logger
	itineraries repos.ItineraryRepo
	records     repos.HikingRecordRepo
	routes      repos.RouteRepo
	notifier    HikingNotifier
}

func NewItineraryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	itineraries repos.ItineraryRepo,
	records repos.HikingRecordRepo,
	routes repos.RouteRepo,
	notifier HikingNotifier,
) ItineraryService {
	if notifier == nil {
		notifier = NewHikingNotifier(nil)
	}
	return &itineraryService{
		db:          db,
		log:         baseLog.With("service", "ItineraryService"),
		itineraries: itineraries,
		records:     records,
		routes:      routes,
		notifier:    notifier,
	}
}

func (s *itineraryService) Plan(ctx context.Context, userID, routeID uuid.UUID, plannedDate time.Time) (*types.Itinerary, error) {
	if userID == uuid.Nil {
		return nil, UnauthorizedError("missing user")
	}
	if routeID == uuid.Nil {
		return nil, ValidationError("route_id is required")
	}
	if plannedDate.IsZero() {
		return nil, ValidationError("planned_date is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	route, err := s.routes.GetByID(dbc, routeID)
	if err != nil {
		return nil, storeError("route", err)
	}
	if route.Status != types.RouteStatusActive {
		return nil, ValidationError("route %s is not open for planning", routeID)
	}
	it, err := s.itineraries.Create(dbc, &types.Itinerary{
		UserID:      userID,
		RouteID:     routeID,
		PlannedDate: dateOnly(plannedDate),
		Status:      types.ItineraryPending,
	})
	if err != nil {
		return nil, storeError("itinerary", err)
	}
	it.Route = route
	s.notifier.ItineraryChanged(ctx, userID, it, "planned")
	return it, nil
}

func (s *itineraryService) BackfillCompleted(dbc dbctx.Context, userID, routeID uuid.UUID, plannedDate time.Time) (*types.Itinerary, error) {
	if plannedDate.IsZero() {
		plannedDate = time.Now().UTC()
	}
	it, err := s.itineraries.Create(dbc, &types.Itinerary{
		UserID:      userID,
		RouteID:     routeID,
		PlannedDate: dateOnly(plannedDate),
		Status:      types.ItineraryCompleted,
	})
	if err != nil {
		return nil, storeError("itinerary", err)
	}
	return it, nil
}

func (s *itineraryService) Complete(dbc dbctx.Context, itineraryID uuid.UUID) (*types.Itinerary, error) {
	err := s.itineraries.UpdateStatus(dbc, itineraryID, types.ItineraryPending, types.ItineraryCompleted)
	if err != nil && !isNotFound(err) {
		return nil, storeError("itinerary", err)
	}
	it, getErr := s.itineraries.GetByID(dbc, itineraryID)
	if getErr != nil {
		return nil, storeError("itinerary", getErr)
	}
	return it, nil
}

func (s *itineraryService) DeleteItinerary(dbc dbctx.Context, itineraryID uuid.UUID, mode DeleteMode) error {
	switch mode {
	case DeleteModeSoft, "":
		if err := s.itineraries.SoftDelete(dbc, itineraryID); err != nil {
			return storeError("itinerary", err)
		}
		return nil
	case DeleteModeHard:
		n, err := s.records.CountByItinerary(dbc, itineraryID)
		if err != nil {
			return storeError("itinerary", err)
		}
		if n > 0 {
			return apierr.New(http.StatusConflict, "itinerary_has_records",
				fmt.Errorf("itinerary %s still has %d hiking records", itineraryID, n))
		}
		if err := s.itineraries.HardDelete(dbc, itineraryID); err != nil {
			return storeError("itinerary", err)
		}
		return nil
	default:
		return ValidationError("unknown delete mode %q", mode)
	}
}

func (s *itineraryService) DeleteForUser(ctx context.Context, userID, itineraryID uuid.UUID, mode DeleteMode) error {
	var deleted *types.Itinerary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		it, err := s.itineraries.GetByID(dbc, itineraryID)
		if err != nil {
			return storeError("itinerary", err)
		}
		if it.UserID != userID {
			return NotFoundError("itinerary")
		}
		if err := s.DeleteItinerary(dbc, itineraryID, mode); err != nil {
			return err
		}
		deleted = it
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("itinerary deleted", "itinerary_id", itineraryID, "user_id", userID, "mode", mode)
	s.notifier.ItineraryChanged(ctx, userID, deleted, "deleted")
	return nil
}

func (s *itineraryService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Itinerary, error) {
	out, err := s.itineraries.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, storeError("itineraries", err)
	}
	if out == nil {
		out = []*types.Itinerary{}
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
