package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

const CodeTagExists = "tag_exists"

type SectionInput struct {
	Title    string `json:"title" yaml:"title"`
	Content  string `json:"content" yaml:"content"`
	ImageURL string `json:"image_url" yaml:"image_url"`
}

// RouteInput is used for create and partial update; nil fields are left untouched.
// TagIDs and Sections replace the existing set when present.
type RouteInput struct {
	CityID        *uuid.UUID      `json:"city_id"`
	Name          *string         `json:"name"`
	Difficulty    *int            `json:"difficulty"`
	DurationHours *float64        `json:"duration_hours"`
	DistanceKM    *float64        `json:"distance_km"`
	CoverImageURL *string         `json:"cover_image_url"`
	Status        *string         `json:"status"`
	StartPoint    *string         `json:"start_point"`
	EndPoint      *string         `json:"end_point"`
	Waypoints     *datatypes.JSON `json:"waypoints"`
	Images        *datatypes.JSON `json:"images"`
	Description   *string         `json:"description"`
	TagIDs        *[]uuid.UUID    `json:"tag_ids"`
	Sections      *[]SectionInput `json:"sections"`
}

type CityInput struct {
	Name        *string `json:"name"`
	District    *string `json:"district"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type TagInput struct {
	Name *string `json:"name"`
}

type AdminCatalogService interface {
	ListRoutes(ctx context.Context, q repos.ListQuery) (*Page[*types.Route], error)
	CreateRoute(ctx context.Context, in RouteInput) (*types.Route, error)
	UpdateRoute(ctx context.Context, id uuid.UUID, in RouteInput) (*types.Route, error)
	DeleteRoute(ctx context.Context, id uuid.UUID) error

	ListCities(ctx context.Context, q repos.ListQuery) (*Page[*types.City], error)
	CreateCity(ctx context.Context, in CityInput) (*types.City, error)
	UpdateCity(ctx context.Context, id uuid.UUID, in CityInput) (*types.City, error)
	DeleteCity(ctx context.Context, id uuid.UUID) error

	ListTags(ctx context.Context, q repos.ListQuery) (*Page[*types.Tag], error)
	AllTags(ctx context.Context) ([]*types.Tag, error)
	CreateTag(ctx context.Context, in TagInput) (*types.Tag, error)
	UpdateTag(ctx context.Context, id uuid.UUID, in TagInput) (*types.Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error
}

type adminCatalogService struct {
	db        *gorm.DB
	log       *logger.Logger
	cities    repos.CityRepo
	routes    repos.RouteRepo
	tags      repos.TagRepo
	routeTags repos.RouteTagRepo
	sections  repos.RouteSectionRepo
	metrics   *observability.Metrics
}

func NewAdminCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cities repos.CityRepo,
	routes repos.RouteRepo,
	tags repos.TagRepo,
	routeTags repos.RouteTagRepo,
	sections repos.RouteSectionRepo,
	metrics *observability.Metrics,
) AdminCatalogService {
	return &adminCatalogService{
		db:        db,
		log:       baseLog.With("service", "AdminCatalogService"),
		cities:    cities,
		routes:    routes,
		tags:      tags,
		routeTags: routeTags,
		sections:  sections,
		metrics:   metrics,
	}
}

// ---- routes ----

func (s *adminCatalogService) ListRoutes(ctx context.Context, q repos.ListQuery) (*Page[*types.Route], error) {
	rows, total, err := s.routes.List(dbctx.Context{Ctx: ctx}, q)
	if err != nil {
		return nil, storeError("routes", err)
	}
	return newPage(rows, total, q), nil
}

func routeUpdates(in RouteInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if in.CityID != nil {
		updates["city_id"] = *in.CityID
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ValidationError("route name must not be empty")
		}
		updates["name"] = name
	}
	if in.Difficulty != nil {
		updates["difficulty"] = *in.Difficulty
	}
	if in.DurationHours != nil {
		if *in.DurationHours < 0 {
			return nil, ValidationError("duration_hours must not be negative")
		}
		updates["duration_hours"] = *in.DurationHours
	}
	if in.DistanceKM != nil {
		if *in.DistanceKM < 0 {
			return nil, ValidationError("distance_km must not be negative")
		}
		updates["distance_km"] = *in.DistanceKM
	}
	if in.CoverImageURL != nil {
		updates["cover_image_url"] = strings.TrimSpace(*in.CoverImageURL)
	}
	if in.Status != nil {
		if *in.Status != types.RouteStatusActive && *in.Status != types.RouteStatusOffline {
			return nil, ValidationError("status must be active or offline")
		}
		updates["status"] = *in.Status
	}
	if in.StartPoint != nil {
		updates["start_point"] = *in.StartPoint
	}
	if in.EndPoint != nil {
		updates["end_point"] = *in.EndPoint
	}
	if in.Waypoints != nil {
		updates["waypoints"] = *in.Waypoints
	}
	if in.Images != nil {
		updates["images"] = *in.Images
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	return updates, nil
}

func (s *adminCatalogService) CreateRoute(ctx context.Context, in RouteInput) (*types.Route, error) {
	if in.CityID == nil || *in.CityID == uuid.Nil {
		return nil, ValidationError("city_id is required")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, ValidationError("route name is required")
	}
	if _, err := routeUpdates(in); err != nil {
		return nil, err
	}
	row := &types.Route{
		CityID:        *in.CityID,
		Name:          strings.TrimSpace(*in.Name),
		Difficulty:    derefInt(in.Difficulty, types.MinDifficulty),
		DurationHours: derefFloat(in.DurationHours),
		DistanceKM:    derefFloat(in.DistanceKM),
		CoverImageURL: derefString(in.CoverImageURL),
		Status:        derefString(in.Status),
		StartPoint:    derefString(in.StartPoint),
		EndPoint:      derefString(in.EndPoint),
		Description:   derefString(in.Description),
	}
	if in.Waypoints != nil {
		row.Waypoints = *in.Waypoints
	}
	if in.Images != nil {
		row.Images = *in.Images
	}

	var out *types.Route
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.cities.GetByID(dbc, row.CityID); err != nil {
			if isNotFound(err) {
				return ValidationError("city %s does not exist", row.CityID)
			}
			return storeError("city", err)
		}
		if _, err := s.routes.Create(dbc, row); err != nil {
			return storeError("route", err)
		}
		if err := s.applyRouteChildren(dbc, row.ID, in); err != nil {
			return err
		}
		detail, err := s.routes.GetDetail(dbc, row.ID)
		if err != nil {
			return storeError("route", err)
		}
		out = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAdminAction("routes", "create")
	s.log.Info("route created", "route_id", out.ID, "city_id", out.CityID)
	return out, nil
}

func (s *adminCatalogService) UpdateRoute(ctx context.Context, id uuid.UUID, in RouteInput) (*types.Route, error) {
	updates, err := routeUpdates(in)
	if err != nil {
		return nil, err
	}
	var out *types.Route
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if in.CityID != nil {
			if _, err := s.cities.GetByID(dbc, *in.CityID); err != nil {
				if isNotFound(err) {
					return ValidationError("city %s does not exist", *in.CityID)
				}
				return storeError("city", err)
			}
		}
		if _, err := s.routes.UpdateFields(dbc, id, updates); err != nil {
			return storeError("route", err)
		}
		if err := s.applyRouteChildren(dbc, id, in); err != nil {
			return err
		}
		detail, err := s.routes.GetDetail(dbc, id)
		if err != nil {
			return storeError("route", err)
		}
		out = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAdminAction("routes", "update")
	return out, nil
}

// applyRouteChildren replaces route_tag rows and sections when the input carries them.
func (s *adminCatalogService) applyRouteChildren(dbc dbctx.Context, routeID uuid.UUID, in RouteInput) error {
	if in.TagIDs != nil {
		ids := *in.TagIDs
		found, err := s.tags.GetByIDs(dbc, ids)
		if err != nil {
			return storeError("tags", err)
		}
		known := make(map[uuid.UUID]bool, len(found))
		for _, t := range found {
			known[t.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return ValidationError("tag %s does not exist", id)
			}
		}
		if err := s.routeTags.ReplaceForRoute(dbc, routeID, ids); err != nil {
			return storeError("route tags", err)
		}
	}
	if in.Sections != nil {
		if err := s.sections.DeleteByRoute(dbc, routeID); err != nil {
			return storeError("route sections", err)
		}
		rows := make([]*types.RouteSection, 0, len(*in.Sections))
		for i, sec := range *in.Sections {
			rows = append(rows, &types.RouteSection{
				RouteID:   routeID,
				SortOrder: i + 1,
				Title:     strings.TrimSpace(sec.Title),
				Content:   sec.Content,
				ImageURL:  strings.TrimSpace(sec.ImageURL),
			})
		}
		if _, err := s.sections.Create(dbc, rows); err != nil {
			return storeError("route sections", err)
		}
	}
	return nil
}

func (s *adminCatalogService) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.routeTags.DeleteByRoute(dbc, id); err != nil {
			return storeError("route tags", err)
		}
		if err := s.sections.DeleteByRoute(dbc, id); err != nil {
			return storeError("route sections", err)
		}
		if err := s.routes.Delete(dbc, id); err != nil {
			return storeError("route", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncAdminAction("routes", "delete")
	s.log.Info("route deleted", "route_id", id)
	return nil
}

// ---- cities ----

func (s *adminCatalogService) ListCities(ctx context.Context, q repos.ListQuery) (*Page[*types.City], error) {
	rows, total, err := s.cities.List(dbctx.Context{Ctx: ctx}, q)
	if err != nil {
		return nil, storeError("cities", err)
	}
	return newPage(rows, total, q), nil
}

func cityUpdates(in CityInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ValidationError("city name must not be empty")
		}
		updates["name"] = name
	}
	if in.District != nil {
		updates["district"] = strings.TrimSpace(*in.District)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	return updates, nil
}

func (s *adminCatalogService) CreateCity(ctx context.Context, in CityInput) (*types.City, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, ValidationError("city name is required")
	}
	row := &types.City{
		Name:        strings.TrimSpace(*in.Name),
		District:    strings.TrimSpace(derefString(in.District)),
		Description: derefString(in.Description),
		ImageURL:    strings.TrimSpace(derefString(in.ImageURL)),
	}
	if _, err := s.cities.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, storeError("city", err)
	}
	s.metrics.IncAdminAction("cities", "create")
	return row, nil
}

func (s *adminCatalogService) UpdateCity(ctx context.Context, id uuid.UUID, in CityInput) (*types.City, error) {
	updates, err := cityUpdates(in)
	if err != nil {
		return nil, err
	}
	row, err := s.cities.UpdateFields(dbctx.Context{Ctx: ctx}, id, updates)
	if err != nil {
		return nil, storeError("city", err)
	}
	s.metrics.IncAdminAction("cities", "update")
	return row, nil
}

// DeleteCity refuses while routes still point at the city.
func (s *adminCatalogService) DeleteCity(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		routes, err := s.routes.ListByCity(dbc, id, false)
		if err != nil {
			return storeError("routes", err)
		}
		if len(routes) > 0 {
			return ConflictError("city_has_routes", "city still has %d routes", len(routes))
		}
		if err := s.cities.Delete(dbc, id); err != nil {
			return storeError("city", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncAdminAction("cities", "delete")
	return nil
}

// ---- tags ----

func (s *adminCatalogService) ListTags(ctx context.Context, q repos.ListQuery) (*Page[*types.Tag], error) {
	rows, total, err := s.tags.List(dbctx.Context{Ctx: ctx}, q)
	if err != nil {
		return nil, storeError("tags", err)
	}
	return newPage(rows, total, q), nil
}

func (s *adminCatalogService) AllTags(ctx context.Context) ([]*types.Tag, error) {
	rows, err := s.tags.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, storeError("tags", err)
	}
	return rows, nil
}

func tagName(in TagInput) (string, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return "", ValidationError("tag name is required")
	}
	return strings.TrimSpace(*in.Name), nil
}

func (s *adminCatalogService) CreateTag(ctx context.Context, in TagInput) (*types.Tag, error) {
	name, err := tagName(in)
	if err != nil {
		return nil, err
	}
	row := &types.Tag{Name: name}
	if _, err := s.tags.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ConflictError(CodeTagExists, "tag %q already exists", name)
		}
		return nil, storeError("tag", err)
	}
	s.metrics.IncAdminAction("tags", "create")
	return row, nil
}

func (s *adminCatalogService) UpdateTag(ctx context.Context, id uuid.UUID, in TagInput) (*types.Tag, error) {
	name, err := tagName(in)
	if err != nil {
		return nil, err
	}
	row, err := s.tags.UpdateFields(dbctx.Context{Ctx: ctx}, id, map[string]interface{}{"name": name})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ConflictError(CodeTagExists, "tag %q already exists", name)
		}
		return nil, storeError("tag", err)
	}
	s.metrics.IncAdminAction("tags", "update")
	return row, nil
}

// DeleteTag detaches the tag from every route, then removes it, in one transaction.
func (s *adminCatalogService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := s.routeTags.DeleteByTag(dbc, id)
		if err != nil {
			return storeError("route tags", err)
		}
		detached = n
		if err := s.tags.Delete(dbc, id); err != nil {
			return storeError("tag", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncAdminAction("tags", "delete")
	s.log.Info("tag deleted", "tag_id", id, "routes_detached", detached)
	return nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
