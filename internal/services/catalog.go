package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

// CatalogService is the read side of cities and routes for hikers. Offline routes stay
// reachable by id (old records link to them) but are not listed.
type CatalogService interface {
	ListCities(ctx context.Context) ([]*types.City, error)
	GetCity(ctx context.Context, id uuid.UUID) (*types.City, error)
	ListRoutesByCity(ctx context.Context, cityID uuid.UUID) ([]*types.Route, error)
	GetRoute(ctx context.Context, id uuid.UUID) (*types.Route, error)
	ListTags(ctx context.Context) ([]*types.Tag, error)
}

type catalogService struct {
	log    *logger.Logger
	cities repos.CityRepo
	routes repos.RouteRepo
	tags   repos.TagRepo
}

func NewCatalogService(baseLog *logger.Logger, cities repos.CityRepo, routes repos.RouteRepo, tags repos.TagRepo) CatalogService {
	return &catalogService{
		log:    baseLog.With("service", "CatalogService"),
		cities: cities,
		routes: routes,
		tags:   tags,
	}
}

func (s *catalogService) ListCities(ctx context.Context) ([]*types.City, error) {
	out, err := s.cities.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, storeError("cities", err)
	}
	if out == nil {
		out = []*types.City{}
	}
	return out, nil
}

func (s *catalogService) GetCity(ctx context.Context, id uuid.UUID) (*types.City, error) {
	c, err := s.cities.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, storeError("city", err)
	}
	return c, nil
}

func (s *catalogService) ListRoutesByCity(ctx context.Context, cityID uuid.UUID) ([]*types.Route, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.cities.GetByID(dbc, cityID); err != nil {
		return nil, storeError("city", err)
	}
	out, err := s.routes.ListByCity(dbc, cityID, true)
	if err != nil {
		return nil, storeError("routes", err)
	}
	if out == nil {
		out = []*types.Route{}
	}
	return out, nil
}

func (s *catalogService) GetRoute(ctx context.Context, id uuid.UUID) (*types.Route, error) {
	r, err := s.routes.GetDetail(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, storeError("route", err)
	}
	return r, nil
}

func (s *catalogService) ListTags(ctx context.Context) ([]*types.Tag, error) {
	out, err := s.tags.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, storeError("tags", err)
	}
	if out == nil {
		out = []*types.Tag{}
	}
	return out, nil
}
