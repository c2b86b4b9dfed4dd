package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

const CodeAlreadyFavorite = "already_favorite"

type FavoriteService interface {
	Add(ctx context.Context, userID, routeID uuid.UUID) (*types.Favorite, error)
	Remove(ctx context.Context, userID, routeID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*types.Favorite, error)
}

type favoriteService struct {
	log       *logger.Logger
	favorites repos.FavoriteRepo
	routes    repos.RouteRepo
}

func NewFavoriteService(baseLog *logger.Logger, favorites repos.FavoriteRepo, routes repos.RouteRepo) FavoriteService {
	return &favoriteService{
		log:       baseLog.With("service", "FavoriteService"),
		favorites: favorites,
		routes:    routes,
	}
}

func (s *favoriteService) Add(ctx context.Context, userID, routeID uuid.UUID) (*types.Favorite, error) {
	if routeID == uuid.Nil {
		return nil, ValidationError("route_id is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	route, err := s.routes.GetByID(dbc, routeID)
	if err != nil {
		return nil, storeError("route", err)
	}
	fav, err := s.favorites.Create(dbc, &types.Favorite{UserID: userID, RouteID: routeID})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ConflictError(CodeAlreadyFavorite, "route is already a favorite")
	}
	if err != nil {
		return nil, storeError("favorite", err)
	}
	fav.Route = route
	return fav, nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, routeID uuid.UUID) error {
	if err := s.favorites.Delete(dbctx.Context{Ctx: ctx}, userID, routeID); err != nil {
		return storeError("favorite", err)
	}
	return nil
}

func (s *favoriteService) List(ctx context.Context, userID uuid.UUID) ([]*types.Favorite, error) {
	out, err := s.favorites.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, storeError("favorites", err)
	}
	if out == nil {
		out = []*types.Favorite{}
	}
	return out, nil
}
