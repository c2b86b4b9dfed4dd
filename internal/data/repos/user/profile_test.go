package user

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

func TestProfileRepoUpsertAndList(t *testing.T) {
	db := testutil.SQLite(t)
	dbc := dbctx.New(context.Background())
	repo := NewProfileRepo(db, testutil.Logger(t))

	id := uuid.New()
	p, err := repo.Upsert(dbc, &types.Profile{ID: id, Username: "alpine"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.Role != types.RoleUser || p.Status != types.ProfileStatusActive {
		t.Fatalf("Upsert defaults: role=%q status=%q", p.Role, p.Status)
	}

	if _, err := repo.Upsert(dbc, &types.Profile{ID: id, Username: "alpine2", Role: types.RoleAdmin, Status: types.ProfileStatusActive}); err != nil {
		t.Fatalf("Upsert existing: %v", err)
	}
	got, err := repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "alpine2" || got.Role != types.RoleAdmin {
		t.Fatalf("Upsert overwrite: got username=%q role=%q", got.Username, got.Role)
	}

	for i := 0; i < 12; i++ {
		if _, err := repo.Upsert(dbc, &types.Profile{ID: uuid.New(), Username: fmt.Sprintf("walker-%02d", i)}); err != nil {
			t.Fatalf("Upsert walker: %v", err)
		}
	}

	rows, total, err := repo.List(dbc, paging.ListQuery{Page: 2, Limit: 5, Search: "WALKER"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 12 || len(rows) != 5 {
		t.Fatalf("List: want total=12 len=5 got total=%d len=%d", total, len(rows))
	}

	rows, total, err = repo.List(dbc, paging.ListQuery{Filters: map[string]string{"role": types.RoleAdmin}})
	if err != nil {
		t.Fatalf("List role: %v", err)
	}
	if total != 1 || rows[0].ID != id {
		t.Fatalf("List role: want only admin got total=%d", total)
	}

	updated, err := repo.UpdateFields(dbc, id, map[string]interface{}{"status": types.ProfileStatusDisabled})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if updated.Status != types.ProfileStatusDisabled {
		t.Fatalf("UpdateFields: want=%q got=%q", types.ProfileStatusDisabled, updated.Status)
	}
}
