package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type RouteTagRepo interface {
	// ReplaceForRoute makes tagIDs the exact tag set of routeID.
	ReplaceForRoute(dbc dbctx.Context, routeID uuid.UUID, tagIDs []uuid.UUID) error
	ListByRoute(dbc dbctx.Context, routeID uuid.UUID) ([]*types.RouteTag, error)
	DeleteByTag(dbc dbctx.Context, tagID uuid.UUID) (int64, error)
	DeleteByRoute(dbc dbctx.Context, routeID uuid.UUID) error
}

type routeTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRouteTagRepo(db *gorm.DB, baseLog *logger.Logger) RouteTagRepo {
	return &routeTagRepo{db: db, log: baseLog.With("repo", "RouteTagRepo")}
}

func (r *routeTagRepo) ReplaceForRoute(dbc dbctx.Context, routeID uuid.UUID, tagIDs []uuid.UUID) error {
	t := dbc.DB(r.db)
	if err := t.Where("route_id = ?", routeID).Delete(&types.RouteTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]*types.RouteTag, 0, len(tagIDs))
	seen := map[uuid.UUID]bool{}
	for _, id := range tagIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, &types.RouteTag{RouteID: routeID, TagID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return t.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *routeTagRepo) ListByRoute(dbc dbctx.Context, routeID uuid.UUID) ([]*types.RouteTag, error) {
	var out []*types.RouteTag
	if err := dbc.DB(r.db).Where("route_id = ?", routeID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeTagRepo) DeleteByTag(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("tag_id = ?", tagID).Delete(&types.RouteTag{})
	return res.RowsAffected, res.Error
}

func (r *routeTagRepo) DeleteByRoute(dbc dbctx.Context, routeID uuid.UUID) error {
	return dbc.DB(r.db).Where("route_id = ?", routeID).Delete(&types.RouteTag{}).Error
}
