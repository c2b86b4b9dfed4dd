package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/domain/jobs"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

const (
	SagaStatusRunning      = jobs.SagaRunning
	SagaStatusSucceeded    = jobs.SagaSucceeded
	SagaStatusFailed       = jobs.SagaFailed
	SagaStatusCompensating = jobs.SagaCompensating
	SagaStatusCompensated  = jobs.SagaCompensated

	SagaActionStatusPending = jobs.SagaActionPending
	SagaActionStatusDone    = jobs.SagaActionDone
	SagaActionStatusFailed  = jobs.SagaActionFailed

	SagaActionKindBlobDeleteKey    = jobs.SagaActionKindBlobDeleteKey
	SagaActionKindBlobDeletePrefix = jobs.SagaActionKindBlobDeletePrefix
)

// SagaService keeps object storage in step with the database. Actions describe blob
// deletions owed by a committed (or rolled back) database change; Compensate executes
// them newest first and leaves failures in place for RetryFailed.
type SagaService interface {
	CreateOrGetSaga(dbc dbctx.Context, ownerUserID uuid.UUID, rootKey string) (uuid.UUID, error)
	AppendAction(dbc dbctx.Context, sagaID uuid.UUID, kind string, payload map[string]any) error
	AppendBlobDelete(dbc dbctx.Context, sagaID uuid.UUID, category objectstore.Category, key string) error
	Compensate(ctx context.Context, sagaID uuid.UUID) (failed int, err error)
	MarkSagaStatus(ctx context.Context, sagaID uuid.UUID, status string) error
	RetryFailed(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type sagaService struct {
	db      *gorm.DB
	log     *logger.Logger
	runs    repos.SagaRunRepo
	actions repos.SagaActionRepo
	bucket  objectstore.Bucket
	metrics *observability.Metrics
}

func NewSagaService(
	db *gorm.DB,
	baseLog *logger.Logger,
	runs repos.SagaRunRepo,
	actions repos.SagaActionRepo,
	bucket objectstore.Bucket,
	metrics *observability.Metrics,
) SagaService {
	return &sagaService{
		db:      db,
		log:     baseLog.With("service", "SagaService"),
		runs:    runs,
		actions: actions,
		bucket:  bucket,
		metrics: metrics,
	}
}

// withTx runs fn inside dbc's transaction, or opens one when dbc has none.
func (s *sagaService) withTx(dbc dbctx.Context, fn func(dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbc.WithTx(tx))
	})
}

func (s *sagaService) CreateOrGetSaga(dbc dbctx.Context, ownerUserID uuid.UUID, rootKey string) (uuid.UUID, error) {
	if s == nil || s.db == nil || s.runs == nil {
		return uuid.Nil, fmt.Errorf("saga service not configured")
	}
	if ownerUserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("missing owner_user_id")
	}
	rootKey = strings.TrimSpace(rootKey)
	if rootKey == "" {
		return uuid.Nil, fmt.Errorf("missing root_key")
	}

	var sagaID uuid.UUID
	err := s.withTx(dbc, func(dbc dbctx.Context) error {
		existing, err := s.runs.GetByRootKey(dbc, rootKey)
		if err != nil {
			return err
		}
		if existing != nil {
			sagaID = existing.ID
			return nil
		}
		row := &types.SagaRun{
			OwnerUserID: ownerUserID,
			RootKey:     rootKey,
			Status:      SagaStatusRunning,
		}
		if _, err := s.runs.Create(dbc, []*types.SagaRun{row}); err != nil {
			return err
		}
		sagaID = row.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return sagaID, nil
}

// AppendAction assigns the next seq under a lock on the saga_run row. Pass the
// transaction that commits the rows the action refers to.
func (s *sagaService) AppendAction(dbc dbctx.Context, sagaID uuid.UUID, kind string, payload map[string]any) error {
	if s == nil || s.runs == nil || s.actions == nil {
		return fmt.Errorf("saga service not configured")
	}
	if sagaID == uuid.Nil {
		return fmt.Errorf("missing saga_id")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("missing saga action kind")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal saga payload: %w", err)
	}

	return s.withTx(dbc, func(dbc dbctx.Context) error {
		sr, err := s.runs.LockByID(dbc, sagaID)
		if err != nil {
			return err
		}
		if sr == nil {
			return fmt.Errorf("saga_run not found: %s", sagaID.String())
		}
		maxSeq, err := s.actions.GetMaxSeq(dbc, sagaID)
		if err != nil {
			return err
		}
		row := &types.SagaAction{
			SagaID:  sagaID,
			Seq:     maxSeq + 1,
			Kind:    kind,
			Payload: datatypes.JSON(raw),
			Status:  SagaActionStatusPending,
		}
		_, err = s.actions.Create(dbc, []*types.SagaAction{row})
		return err
	})
}

func (s *sagaService) AppendBlobDelete(dbc dbctx.Context, sagaID uuid.UUID, category objectstore.Category, key string) error {
	return s.AppendAction(dbc, sagaID, SagaActionKindBlobDeleteKey, map[string]any{
		"category": string(category),
		"key":      key,
	})
}

func (s *sagaService) MarkSagaStatus(ctx context.Context, sagaID uuid.UUID, status string) error {
	if s == nil || s.runs == nil {
		return fmt.Errorf("saga service not configured")
	}
	if sagaID == uuid.Nil {
		return fmt.Errorf("missing saga_id")
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return fmt.Errorf("missing saga status")
	}
	return s.runs.UpdateFields(dbctx.Context{Ctx: ctx}, sagaID, map[string]interface{}{"status": status})
}

// Compensate executes every action not yet done, newest first. A failing action is
// logged, marked failed and skipped; the saga ends compensated or failed accordingly.
func (s *sagaService) Compensate(ctx context.Context, sagaID uuid.UUID) (int, error) {
	if s == nil || s.actions == nil {
		return 0, fmt.Errorf("saga service not configured")
	}
	if sagaID == uuid.Nil {
		return 0, fmt.Errorf("missing saga_id")
	}

	_ = s.MarkSagaStatus(ctx, sagaID, SagaStatusCompensating)

	actions, err := s.actions.ListBySagaIDDesc(dbctx.Context{Ctx: ctx}, sagaID)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, a := range actions {
		if a == nil || a.ID == uuid.Nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(a.Status), SagaActionStatusDone) {
			continue
		}

		execErr := s.executeAction(ctx, a)
		nextStatus := SagaActionStatusDone
		if execErr != nil {
			failed++
			nextStatus = SagaActionStatusFailed
			s.log.Warn("saga action compensate failed",
				"saga_id", sagaID.String(),
				"action_id", a.ID.String(),
				"kind", a.Kind,
				"seq", a.Seq,
				"err", execErr.Error(),
			)
		}
		s.metrics.IncSagaAction(a.Kind, nextStatus)
		_ = s.actions.UpdateFields(dbctx.Context{Ctx: ctx}, a.ID, map[string]interface{}{"status": nextStatus})
	}

	final := SagaStatusCompensated
	if failed > 0 {
		final = SagaStatusFailed
	}
	_ = s.MarkSagaStatus(ctx, sagaID, final)
	return failed, nil
}

// RetryFailed re-runs sagas left failed (or stuck compensating) for at least olderThan.
func (s *sagaService) RetryFailed(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if s == nil || s.runs == nil {
		return 0, fmt.Errorf("saga service not configured")
	}
	before := time.Now().UTC().Add(-olderThan)
	runs, err := s.runs.ListByStatusBefore(dbctx.Context{Ctx: ctx}, []string{SagaStatusFailed, SagaStatusCompensating}, before, limit)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, r := range runs {
		failed, err := s.Compensate(ctx, r.ID)
		if err != nil {
			s.log.Warn("saga retry failed", "saga_id", r.ID.String(), "error", err)
			continue
		}
		if failed == 0 {
			recovered++
		}
	}
	return recovered, nil
}

func (s *sagaService) executeAction(ctx context.Context, a *types.SagaAction) error {
	if a == nil {
		return nil
	}
	kind := strings.TrimSpace(a.Kind)
	if kind == "" {
		return nil
	}
	switch kind {
	case SagaActionKindBlobDeleteKey:
		if s.bucket == nil {
			return fmt.Errorf("bucket service unavailable")
		}
		var p struct {
			Category string `json:"category"`
			Key      string `json:"key"`
		}
		_ = json.Unmarshal(a.Payload, &p)
		cat, err := objectstore.ParseCategory(p.Category)
		if err != nil {
			return err
		}
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return nil
		}
		err = s.bucket.DeleteFile(dbctx.Context{Ctx: ctx}, cat, key)
		if objectstore.IsNotFound(err) {
			return nil
		}
		return err

	case SagaActionKindBlobDeletePrefix:
		if s.bucket == nil {
			return fmt.Errorf("bucket service unavailable")
		}
		var p struct {
			Category string `json:"category"`
			Prefix   string `json:"prefix"`
		}
		_ = json.Unmarshal(a.Payload, &p)
		cat, err := objectstore.ParseCategory(p.Category)
		if err != nil {
			return err
		}
		prefix := strings.TrimSpace(p.Prefix)
		if prefix == "" {
			return nil
		}
		return s.bucket.DeletePrefix(ctx, cat, prefix)

	default:
		return fmt.Errorf("unknown saga action kind: %s", kind)
	}
}
