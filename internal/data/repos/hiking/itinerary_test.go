package hiking

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

func itineraryIDs(rows []*types.Itinerary) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestItineraryRepoListExcludesSoftDeleted(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewItineraryRepo(db, testutil.Logger(t))

	userID := uuid.New()
	city := testutil.SeedCity(t, ctx, db, "Hangzhou")
	route := testutil.SeedRoute(t, ctx, db, city.ID, "Nine Creeks")

	a := testutil.SeedItinerary(t, ctx, db, userID, route.ID, types.ItineraryPending)
	b := testutil.SeedItinerary(t, ctx, db, userID, route.ID, types.ItineraryCompleted)
	c := testutil.SeedItinerary(t, ctx, db, userID, route.ID, types.ItineraryPending)
	testutil.SeedItinerary(t, ctx, db, uuid.New(), route.ID, types.ItineraryPending)

	base := time.Now().UTC().Add(-time.Hour)
	for i, it := range []*types.Itinerary{a, b, c} {
		if err := db.Model(&types.Itinerary{}).Where("id = ?", it.ID).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
	}

	if err := repo.SoftDelete(dbc, b.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	first, err := repo.ListByUser(dbc, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	got := itineraryIDs(first)
	want := []uuid.UUID{a.ID, c.ID}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListByUser: want=%v got=%v", want, got)
	}
	if first[0].Route == nil || first[0].Route.ID != route.ID {
		t.Fatalf("ListByUser: route not joined")
	}

	second, err := repo.ListByUser(dbc, userID)
	if err != nil {
		t.Fatalf("ListByUser again: %v", err)
	}
	if !reflect.DeepEqual(itineraryIDs(second), got) {
		t.Fatalf("ListByUser not repeatable: first=%v second=%v", got, itineraryIDs(second))
	}

	if _, err := repo.GetByID(dbc, b.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByID soft-deleted: want ErrRecordNotFound got=%v", err)
	}
	unscoped, err := repo.GetByIDUnscoped(dbc, b.ID)
	if err != nil {
		t.Fatalf("GetByIDUnscoped: %v", err)
	}
	if !unscoped.DeletedAt.Valid {
		t.Fatalf("GetByIDUnscoped: deleted_at should be set")
	}
	if unscoped.Status != types.ItineraryCompleted {
		t.Fatalf("soft delete changed status: got=%q", unscoped.Status)
	}
}

func TestItineraryRepoUpdateStatusIsConditional(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewItineraryRepo(db, testutil.Logger(t))

	city := testutil.SeedCity(t, ctx, db, "Lishui")
	route := testutil.SeedRoute(t, ctx, db, city.ID, "Cloud Ridge")
	it := testutil.SeedItinerary(t, ctx, db, uuid.New(), route.ID, types.ItineraryPending)

	if err := repo.UpdateStatus(dbc, it.ID, types.ItineraryPending, types.ItineraryCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.UpdateStatus(dbc, it.ID, types.ItineraryPending, types.ItineraryCompleted); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("UpdateStatus twice: want ErrRecordNotFound got=%v", err)
	}
	if err := repo.UpdateStatus(dbc, uuid.New(), types.ItineraryPending, types.ItineraryCompleted); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("UpdateStatus missing: want ErrRecordNotFound got=%v", err)
	}
}

func TestItineraryRepoFindPendingForRoute(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewItineraryRepo(db, testutil.Logger(t))

	userID := uuid.New()
	city := testutil.SeedCity(t, ctx, db, "Ningbo")
	route := testutil.SeedRoute(t, ctx, db, city.ID, "Sea Cliff")

	got, err := repo.FindPendingForRoute(dbc, userID, route.ID)
	if err != nil || got != nil {
		t.Fatalf("FindPendingForRoute empty: got=%v err=%v", got, err)
	}

	deleted := testutil.SeedItinerary(t, ctx, db, userID, route.ID, types.ItineraryPending)
	if err := repo.SoftDelete(dbc, deleted.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	testutil.SeedItinerary(t, ctx, db, userID, route.ID, types.ItineraryCompleted)
	pending := testutil.SeedItinerary(t, ctx, db, userID, route.ID, types.ItineraryPending)

	got, err = repo.FindPendingForRoute(dbc, userID, route.ID)
	if err != nil {
		t.Fatalf("FindPendingForRoute: %v", err)
	}
	if got == nil || got.ID != pending.ID {
		t.Fatalf("FindPendingForRoute: want=%s got=%v", pending.ID, got)
	}
}

func TestItineraryRepoHardDelete(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewItineraryRepo(db, testutil.Logger(t))

	city := testutil.SeedCity(t, ctx, db, "Wenzhou")
	route := testutil.SeedRoute(t, ctx, db, city.ID, "Yandang")
	it := testutil.SeedItinerary(t, ctx, db, uuid.New(), route.ID, types.ItineraryPending)

	if err := repo.HardDelete(dbc, it.ID); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if _, err := repo.GetByIDUnscoped(dbc, it.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByIDUnscoped after hard delete: want ErrRecordNotFound got=%v", err)
	}
}
