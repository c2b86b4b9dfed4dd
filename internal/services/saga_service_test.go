package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

func TestSagaCompensateDeletesBlobsNewestFirst(t *testing.T) {
	h := newHarness(t)
	dbc := dbctx.Context{Ctx: h.ctx}
	owner := uuid.New()

	for _, k := range []string{"a.jpg", "b.jpg"} {
		if err := h.bucket.UploadFile(dbc, objectstore.CategoryMedia, k, strings.NewReader("blob")); err != nil {
			t.Fatalf("UploadFile: %v", err)
		}
	}
	sagaID, err := h.saga.CreateOrGetSaga(dbc, owner, "test:compensate")
	if err != nil {
		t.Fatalf("CreateOrGetSaga: %v", err)
	}
	again, err := h.saga.CreateOrGetSaga(dbc, owner, "test:compensate")
	if err != nil || again != sagaID {
		t.Fatalf("CreateOrGetSaga reuse: want=%s got=%s err=%v", sagaID, again, err)
	}
	for _, k := range []string{"a.jpg", "b.jpg"} {
		if err := h.saga.AppendBlobDelete(dbc, sagaID, objectstore.CategoryMedia, k); err != nil {
			t.Fatalf("AppendBlobDelete: %v", err)
		}
	}

	actions, err := h.sagaActions.ListBySagaIDDesc(dbc, sagaID)
	if err != nil {
		t.Fatalf("ListBySagaIDDesc: %v", err)
	}
	if len(actions) != 2 || actions[0].Seq != 2 || actions[1].Seq != 1 {
		t.Fatalf("actions: want seq 2,1 got=%d rows", len(actions))
	}

	failed, err := h.saga.Compensate(h.ctx, sagaID)
	if err != nil || failed != 0 {
		t.Fatalf("Compensate: failed=%d err=%v", failed, err)
	}
	if h.bucket.Len() != 0 {
		t.Fatalf("bucket: want empty got=%d", h.bucket.Len())
	}
	run, err := h.sagaRuns.GetByID(dbc, sagaID)
	if err != nil || run == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Status != SagaStatusCompensated {
		t.Fatalf("status: want=%q got=%q", SagaStatusCompensated, run.Status)
	}
}

func TestSagaCompensateToleratesMissingObjects(t *testing.T) {
	h := newHarness(t)
	dbc := dbctx.Context{Ctx: h.ctx}
	sagaID, err := h.saga.CreateOrGetSaga(dbc, uuid.New(), "test:missing")
	if err != nil {
		t.Fatalf("CreateOrGetSaga: %v", err)
	}
	if err := h.saga.AppendBlobDelete(dbc, sagaID, objectstore.CategoryMedia, "never-uploaded.mp4"); err != nil {
		t.Fatalf("AppendBlobDelete: %v", err)
	}
	failed, err := h.saga.Compensate(h.ctx, sagaID)
	if err != nil || failed != 0 {
		t.Fatalf("Compensate: failed=%d err=%v", failed, err)
	}
}

type failingDeleteBucket struct {
	*objectstore.MemoryBucket
	fail bool
}

func (b *failingDeleteBucket) DeleteFile(dbc dbctx.Context, category objectstore.Category, key string) error {
	if b.fail {
		return errors.New("storage unavailable")
	}
	return b.MemoryBucket.DeleteFile(dbc, category, key)
}

func TestSagaRetryFailedRecovers(t *testing.T) {
	h := newHarness(t)
	dbc := dbctx.Context{Ctx: h.ctx}
	bucket := &failingDeleteBucket{MemoryBucket: h.bucket, fail: true}
	saga := NewSagaService(h.db, h.log, h.sagaRuns, h.sagaActions, bucket, nil)

	if err := h.bucket.UploadFile(dbc, objectstore.CategoryMedia, "x.png", strings.NewReader("blob")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	sagaID, err := saga.CreateOrGetSaga(dbc, uuid.New(), "test:retry")
	if err != nil {
		t.Fatalf("CreateOrGetSaga: %v", err)
	}
	if err := saga.AppendBlobDelete(dbc, sagaID, objectstore.CategoryMedia, "x.png"); err != nil {
		t.Fatalf("AppendBlobDelete: %v", err)
	}
	failed, err := saga.Compensate(h.ctx, sagaID)
	if err != nil || failed != 1 {
		t.Fatalf("Compensate: want failed=1 got=%d err=%v", failed, err)
	}

	bucket.fail = false
	recovered, err := saga.RetryFailed(h.ctx, -time.Minute, 10)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("recovered: want=1 got=%d", recovered)
	}
	if h.bucket.Has(objectstore.CategoryMedia, "x.png") {
		t.Fatalf("object should be gone after retry")
	}
}

func TestSagaAppendActionValidates(t *testing.T) {
	h := newHarness(t)
	dbc := dbctx.Context{Ctx: h.ctx}
	if err := h.saga.AppendAction(dbc, uuid.Nil, SagaActionKindBlobDeleteKey, nil); err == nil {
		t.Fatalf("AppendAction: want error for missing saga id")
	}
	if err := h.saga.AppendAction(dbc, uuid.New(), " ", nil); err == nil {
		t.Fatalf("AppendAction: want error for missing kind")
	}
	if err := h.saga.AppendAction(dbc, uuid.New(), SagaActionKindBlobDeleteKey, nil); err == nil {
		t.Fatalf("AppendAction: want error for unknown saga")
	}
}
