package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type UserStats struct {
	repos.RecordStats
	PendingPlans int64 `json:"pending_plans"`
	Favorites    int64 `json:"favorites"`
}

type StatsService interface {
	ForUser(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

type statsService struct {
	log         *logger.Logger
	records     repos.HikingRecordRepo
	itineraries repos.ItineraryRepo
	favorites   repos.FavoriteRepo
}

func NewStatsService(baseLog *logger.Logger, records repos.HikingRecordRepo, itineraries repos.ItineraryRepo, favorites repos.FavoriteRepo) StatsService {
	return &statsService{
		log:         baseLog.With("service", "StatsService"),
		records:     records,
		itineraries: itineraries,
		favorites:   favorites,
	}
}

func (s *statsService) ForUser(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	var out UserStats
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}

	g.Go(func() error {
		st, err := s.records.StatsByUser(dbc, userID)
		if err != nil {
			return storeError("record stats", err)
		}
		out.RecordStats = st
		return nil
	})
	g.Go(func() error {
		n, err := s.itineraries.CountPendingByUser(dbc, userID)
		if err != nil {
			return storeError("itineraries", err)
		}
		out.PendingPlans = n
		return nil
	})
	g.Go(func() error {
		n, err := s.favorites.CountByUser(dbc, userID)
		if err != nil {
			return storeError("favorites", err)
		}
		out.Favorites = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
