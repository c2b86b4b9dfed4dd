package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

func checkInWithMedia(t *testing.T, h *harness, user, routeID uuid.UUID) *CheckInResult {
	t.Helper()
	res, err := h.checkIns().CheckIn(h.ctx, CheckInRequest{
		UserID: user, RouteID: routeID, Distance: "5", Duration: "2h",
		Files: []MediaUpload{
			memUpload("a.jpg", "image/jpeg", "a"),
			memUpload("b.mov", "video/quicktime", "b"),
		},
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	return res
}

func TestRecordDeleteCascadesToItinerary(t *testing.T) {
	h := newHarness(t)
	route := seedRoute(t, h)
	user := uuid.New()
	created := checkInWithMedia(t, h, user, route.ID)
	if h.bucket.Len() != 2 {
		t.Fatalf("bucket: want=2 got=%d", h.bucket.Len())
	}

	res, err := h.recordService().Delete(h.ctx, user, created.Record.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.MediaDeleted != 2 || !res.ItinerarySoftDeleted || res.BlobDeletesFailed != 0 {
		t.Fatalf("result: got=%+v", res)
	}
	if h.bucket.Len() != 0 {
		t.Fatalf("bucket: want=0 got=%d", h.bucket.Len())
	}

	dbc := dbctx.Context{Ctx: h.ctx}
	if _, err := h.records.GetByID(dbc, created.Record.ID); !isNotFound(err) {
		t.Fatalf("record: want not found got=%v", err)
	}
	if _, err := h.itineraries.GetByID(dbc, created.Itinerary.ID); !isNotFound(err) {
		t.Fatalf("itinerary: want hidden got=%v", err)
	}
	gone, err := h.itineraries.GetByIDUnscoped(dbc, created.Itinerary.ID)
	if err != nil {
		t.Fatalf("GetByIDUnscoped: %v", err)
	}
	if !gone.DeletedAt.Valid {
		t.Fatalf("deleted_at: want set")
	}
}

func TestRecordDeleteKeepsItineraryWithOtherRecords(t *testing.T) {
	h := newHarness(t)
	route := seedRoute(t, h)
	user := uuid.New()
	it := testutil.SeedItinerary(t, h.ctx, h.db, user, route.ID, types.ItineraryCompleted)
	a := testutil.SeedRecord(t, h.ctx, h.db, it, 3)
	testutil.SeedRecord(t, h.ctx, h.db, it, 4)

	res, err := h.recordService().Delete(h.ctx, user, a.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.ItinerarySoftDeleted {
		t.Fatalf("itinerary should survive while records remain")
	}
	if _, err := h.itineraries.GetByID(dbctx.Context{Ctx: h.ctx}, it.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
}

func TestRecordDeleteOtherUserIsNotFound(t *testing.T) {
	h := newHarness(t)
	route := seedRoute(t, h)
	owner := uuid.New()
	created := checkInWithMedia(t, h, owner, route.ID)

	_, err := h.recordService().Delete(h.ctx, uuid.New(), created.Record.ID)
	if apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", apierr.StatusOf(err))
	}
	if !h.bucket.Has(objectstore.CategoryMedia, created.Media[0].StorageKey) {
		t.Fatalf("media should be untouched")
	}
}

func TestRecordGetAndList(t *testing.T) {
	h := newHarness(t)
	route := seedRoute(t, h)
	user := uuid.New()
	created := checkInWithMedia(t, h, user, route.ID)
	svc := h.recordService()

	rec, err := svc.Get(h.ctx, user, created.Record.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Media) != 2 {
		t.Fatalf("media: want=2 got=%d", len(rec.Media))
	}
	if _, err := svc.Get(h.ctx, uuid.New(), created.Record.ID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign Get: want=404 got=%v", err)
	}
	list, err := svc.ListForUser(h.ctx, user)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListForUser: want=1 got=%d err=%v", len(list), err)
	}
}

// deleteRecorder notes every DeleteItinerary call before delegating.
type deleteRecorder struct {
	ItineraryService
	calls []DeleteMode
}

func (d *deleteRecorder) DeleteItinerary(dbc dbctx.Context, itineraryID uuid.UUID, mode DeleteMode) error {
	d.calls = append(d.calls, mode)
	return d.ItineraryService.DeleteItinerary(dbc, itineraryID, mode)
}

func TestRecordDeleteUsesSoftItineraryDelete(t *testing.T) {
	h := newHarness(t)
	route := seedRoute(t, h)
	user := uuid.New()
	created := checkInWithMedia(t, h, user, route.ID)

	spy := &deleteRecorder{ItineraryService: h.itinerary}
	svc := NewRecordService(h.db, h.log, h.records, h.media, h.itineraries, spy, h.saga, h.notifier, nil)
	res, err := svc.Delete(h.ctx, user, created.Record.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !res.ItinerarySoftDeleted {
		t.Fatalf("Delete: itinerary should be soft deleted")
	}
	if len(spy.calls) != 1 || spy.calls[0] != DeleteModeSoft {
		t.Fatalf("DeleteItinerary calls: want=[soft] got=%v", spy.calls)
	}
}
