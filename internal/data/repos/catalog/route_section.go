package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type RouteSectionRepo interface {
	Create(dbc dbctx.Context, rows []*types.RouteSection) ([]*types.RouteSection, error)
	ListByRoute(dbc dbctx.Context, routeID uuid.UUID) ([]*types.RouteSection, error)
	DeleteByRoute(dbc dbctx.Context, routeID uuid.UUID) error
}

type routeSectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRouteSectionRepo(db *gorm.DB, baseLog *logger.Logger) RouteSectionRepo {
	return &routeSectionRepo{db: db, log: baseLog.With("repo", "RouteSectionRepo")}
}

func (r *routeSectionRepo) Create(dbc dbctx.Context, rows []*types.RouteSection) ([]*types.RouteSection, error) {
	if len(rows) == 0 {
		return []*types.RouteSection{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *routeSectionRepo) ListByRoute(dbc dbctx.Context, routeID uuid.UUID) ([]*types.RouteSection, error) {
	var out []*types.RouteSection
	if err := dbc.DB(r.db).Where("route_id = ?", routeID).Order("sort_order ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeSectionRepo) DeleteByRoute(dbc dbctx.Context, routeID uuid.UUID) error {
	return dbc.DB(r.db).Where("route_id = ?", routeID).Delete(&types.RouteSection{}).Error
}
