package hiking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

func TestFavoriteRepoUniquePair(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewFavoriteRepo(db, testutil.Logger(t))

	userID := uuid.New()
	city := testutil.SeedCity(t, ctx, db, "Guilin")
	route := testutil.SeedRoute(t, ctx, db, city.ID, "Li River")

	if _, err := repo.Create(dbc, &types.Favorite{UserID: userID, RouteID: route.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, &types.Favorite{UserID: userID, RouteID: route.ID}); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create duplicate: want ErrDuplicatedKey got=%v", err)
	}

	ok, err := repo.Exists(dbc, userID, route.ID)
	if err != nil || !ok {
		t.Fatalf("Exists: want true got=%v err=%v", ok, err)
	}
	list, err := repo.ListByUser(dbc, userID)
	if err != nil || len(list) != 1 || list[0].Route == nil {
		t.Fatalf("ListByUser: len=%d err=%v", len(list), err)
	}

	if err := repo.Delete(dbc, userID, route.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(dbc, userID, route.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Delete twice: want ErrRecordNotFound got=%v", err)
	}
}
