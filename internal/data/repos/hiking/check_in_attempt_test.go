package hiking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

func TestCheckInAttemptRepo(t *testing.T) {
	db := testutil.SQLite(t)
	dbc := dbctx.New(context.Background())
	repo := NewCheckInAttemptRepo(db, testutil.Logger(t))

	userID := uuid.New()
	a, err := repo.Create(dbc, &types.CheckInAttempt{UserID: userID, IdempotencyKey: "k1", RequestHash: "h1", Status: types.AttemptInProgress})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, &types.CheckInAttempt{UserID: userID, IdempotencyKey: "k1", RequestHash: "h2", Status: types.AttemptInProgress}); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create duplicate: want ErrDuplicatedKey got=%v", err)
	}
	if _, err := repo.Create(dbc, &types.CheckInAttempt{UserID: uuid.New(), IdempotencyKey: "k1", RequestHash: "h1", Status: types.AttemptInProgress}); err != nil {
		t.Fatalf("Create same key other user: %v", err)
	}

	ok, err := repo.Reclaim(dbc, a.ID, "h3")
	if err != nil || ok {
		t.Fatalf("Reclaim in-progress: want false got=%v err=%v", ok, err)
	}
	if err := repo.UpdateFields(dbc, a.ID, map[string]interface{}{"status": types.AttemptFailed}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	ok, err = repo.Reclaim(dbc, a.ID, "h3")
	if err != nil || !ok {
		t.Fatalf("Reclaim failed attempt: want true got=%v err=%v", ok, err)
	}

	got, err := repo.GetByKey(dbc, userID, "k1")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got.Status != types.AttemptInProgress || got.RequestHash != "h3" {
		t.Fatalf("GetByKey: got status=%q hash=%q", got.Status, got.RequestHash)
	}
	missing, err := repo.GetByKey(dbc, userID, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByKey missing: got=%v err=%v", missing, err)
	}
}

func TestCheckInAttemptReclaimStale(t *testing.T) {
	db := testutil.SQLite(t)
	dbc := dbctx.New(context.Background())
	repo := NewCheckInAttemptRepo(db, testutil.Logger(t))

	a, err := repo.Create(dbc, &types.CheckInAttempt{UserID: uuid.New(), IdempotencyKey: "k", RequestHash: "h", Status: types.AttemptInProgress})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := repo.ReclaimStale(dbc, a.ID, time.Now().Add(-time.Minute))
	if err != nil || ok {
		t.Fatalf("ReclaimStale fresh: want false got=%v err=%v", ok, err)
	}

	if err := db.Model(&types.CheckInAttempt{}).Where("id = ?", a.ID).
		UpdateColumns(map[string]interface{}{"updated_at": time.Now().Add(-time.Hour)}).Error; err != nil {
		t.Fatalf("age attempt: %v", err)
	}
	ok, err = repo.ReclaimStale(dbc, a.ID, time.Now().Add(-time.Minute))
	if err != nil || !ok {
		t.Fatalf("ReclaimStale old: want true got=%v err=%v", ok, err)
	}
	ok, err = repo.ReclaimStale(dbc, a.ID, time.Now().Add(-time.Minute))
	if err != nil || ok {
		t.Fatalf("ReclaimStale twice: want false got=%v err=%v", ok, err)
	}
}
