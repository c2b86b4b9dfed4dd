package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

func TestRouteRepoListFiltersAndCity(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewRouteRepo(db, testutil.Logger(t))

	hz := testutil.SeedCity(t, ctx, db, "Hangzhou")
	sz := testutil.SeedCity(t, ctx, db, "Suzhou")
	testutil.SeedRoute(t, ctx, db, hz.ID, "Dragon Well Trail")
	testutil.SeedRoute(t, ctx, db, hz.ID, "Jade Emperor Loop")
	testutil.SeedRoute(t, ctx, db, sz.ID, "Tiger Hill")

	rows, total, err := repo.List(dbc, paging.ListQuery{Filters: map[string]string{"city_id": hz.ID.String()}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("List city: want=2 got total=%d len=%d", total, len(rows))
	}
	for _, r := range rows {
		if r.City == nil || r.City.Name != "Hangzhou" {
			t.Fatalf("List: city not joined for %s", r.Name)
		}
	}

	rows, total, err = repo.List(dbc, paging.ListQuery{Search: "tiger"})
	if err != nil || total != 1 || rows[0].Name != "Tiger Hill" {
		t.Fatalf("List search: total=%d err=%v", total, err)
	}

	created, err := repo.Create(dbc, &types.Route{CityID: sz.ID, Name: "Steep", Difficulty: 9})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Difficulty != types.ClampDifficulty(9) || created.Status != types.RouteStatusActive {
		t.Fatalf("Create defaults: difficulty=%d status=%q", created.Difficulty, created.Status)
	}
	updated, err := repo.UpdateFields(dbc, created.ID, map[string]interface{}{"difficulty": 0})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if updated.Difficulty != 1 {
		t.Fatalf("UpdateFields clamp: want=1 got=%d", updated.Difficulty)
	}
}

func TestRouteTagRepoReplaceAndDeleteByTag(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	log := testutil.Logger(t)
	routeTags := NewRouteTagRepo(db, log)
	routes := NewRouteRepo(db, log)

	city := testutil.SeedCity(t, ctx, db, "Kunming")
	route := testutil.SeedRoute(t, ctx, db, city.ID, "Stone Forest")
	scenic := testutil.SeedTag(t, ctx, db, "scenic")
	family := testutil.SeedTag(t, ctx, db, "family")

	if err := routeTags.ReplaceForRoute(dbc, route.ID, []uuid.UUID{scenic.ID, family.ID, scenic.ID}); err != nil {
		t.Fatalf("ReplaceForRoute: %v", err)
	}
	rows, err := routeTags.ListByRoute(dbc, route.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByRoute: want=2 got=%d err=%v", len(rows), err)
	}

	detail, err := routes.GetDetail(dbc, route.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.Tags) != 2 || detail.Tags[0].Name != "family" {
		t.Fatalf("GetDetail tags: got=%+v", detail.Tags)
	}

	n, err := routeTags.DeleteByTag(dbc, scenic.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByTag: want=1 got=%d err=%v", n, err)
	}
	rows, _ = routeTags.ListByRoute(dbc, route.ID)
	if len(rows) != 1 || rows[0].TagID != family.ID {
		t.Fatalf("ListByRoute after DeleteByTag: got=%+v", rows)
	}
}
