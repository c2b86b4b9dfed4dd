package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/locks"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

const (
	CodeCheckInInFlight      = "checkin_in_flight"
	CodeIdempotencyKeyReused = "idempotency_key_reused"
)

type FailedMedia struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type CheckInResult struct {
	Itinerary   *types.Itinerary    `json:"itinerary"`
	Record      *types.HikingRecord `json:"record"`
	Media       []*types.Media      `json:"media"`
	Warnings    []string            `json:"warnings"`
	FailedMedia []FailedMedia       `json:"failed_media"`
	Replayed    bool                `json:"replayed,omitempty"`
}

// CheckInService records a completed hike: itinerary transition and record creation
// commit together, media follow one file at a time and never fail the check-in.
type CheckInService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error)
}

type CheckInConfig struct {
	LockTTL time.Duration
}

type checkInService struct {
	db          *gorm.DB
	log         *logger.Logger
	itinerary   ItineraryService
	itineraries repos.ItineraryRepo
	records     repos.HikingRecordRepo
	media       repos.MediaRepo
	routes      repos.RouteRepo
	attempts    repos.CheckInAttemptRepo
	saga        SagaService
	bucket      objectstore.Bucket
	locker      locks.Locker
	notifier    HikingNotifier
	metrics     *observability.Metrics
	cfg         CheckInConfig
	now         func() time.Time
}

func NewCheckInService(
	db *gorm.DB,
	baseLog *logger.Logger,
	itinerary ItineraryService,
	itineraries repos.ItineraryRepo,
	records repos.HikingRecordRepo,
	media repos.MediaRepo,
	routes repos.RouteRepo,
	attempts repos.CheckInAttemptRepo,
	saga SagaService,
	bucket objectstore.Bucket,
	locker locks.Locker,
	notifier HikingNotifier,
	metrics *observability.Metrics,
	cfg CheckInConfig,
) CheckInService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if locker == nil {
		locker = locks.NewMemoryLocker()
	}
	if notifier == nil {
		notifier = NewHikingNotifier(nil)
	}
	return &checkInService{
		db:          db,
		log:         baseLog.With("service", "CheckInService"),
		itinerary:   itinerary,
		itineraries: itineraries,
		records:     records,
		media:       media,
		routes:      routes,
		attempts:    attempts,
		saga:        saga,
		bucket:      bucket,
		locker:      locker,
		notifier:    notifier,
		metrics:     metrics,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *checkInService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if req.UserID == uuid.Nil {
		return nil, UnauthorizedError("missing user")
	}
	v, err := ValidateCheckIn(req)
	if err != nil {
		s.metrics.IncCheckIn("rejected")
		return nil, err
	}
	if len(req.Files) > MaxCheckInFiles {
		s.metrics.AddMediaTrimmed(len(req.Files) - MaxCheckInFiles)
		s.log.Warn("check-in media trimmed", "user_id", req.UserID, "received", len(req.Files), "kept", MaxCheckInFiles)
	}

	attempt, replay, err := s.claimAttempt(ctx, req, v)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		s.metrics.IncCheckIn("replayed")
		return replay, nil
	}

	routeID, err := s.lockRoute(ctx, req)
	if err != nil {
		s.failAttempt(ctx, attempt)
		s.metrics.IncCheckIn("rejected")
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, checkInLockKey(req.UserID, routeID), s.cfg.LockTTL)
	if err != nil {
		s.failAttempt(ctx, attempt)
		if errors.Is(err, locks.ErrHeld) {
			s.metrics.IncCheckIn("conflict")
			return nil, ConflictError(CodeCheckInInFlight, "a check-in for this hike is already in progress")
		}
		return nil, apierr.New(http.StatusServiceUnavailable, "lock_unavailable", fmt.Errorf("acquire check-in lock: %w", err))
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.log.Warn("check-in lock release failed", "error", rerr)
		}
	}()

	it, rec, sagaID, err := s.commitRecord(ctx, req, v, attempt)
	if err != nil {
		s.failAttempt(ctx, attempt)
		s.metrics.IncCheckIn("failed")
		return nil, err
	}

	result := &CheckInResult{
		Itinerary:   it,
		Record:      rec,
		Media:       []*types.Media{},
		Warnings:    append([]string{}, v.Warnings...),
		FailedMedia: []FailedMedia{},
	}
	s.uploadMedia(ctx, req.UserID, rec, sagaID, v.Files, result)

	if err := s.completeAttempt(ctx, attempt, result); err != nil {
		s.log.Warn("check-in result not stored; replay will rebuild it", "attempt_id", attempt.ID, "error", err)
	}
	s.metrics.IncCheckIn("created")
	s.log.Info("check-in recorded",
		"user_id", req.UserID,
		"record_id", rec.ID,
		"itinerary_id", it.ID,
		"media", len(result.Media),
		"failed_media", len(result.FailedMedia),
	)
	s.notifier.RecordCreated(ctx, req.UserID, rec, len(result.FailedMedia))
	s.notifier.ItineraryChanged(ctx, req.UserID, it, "completed")
	return result, nil
}

// checkInLockKey is per (user, route) whichever way the hike was addressed, so a
// submission by itinerary_id and one by route_id contend for the same lock.
func checkInLockKey(userID, routeID uuid.UUID) string {
	return fmt.Sprintf("checkin:lock:%s:%s", userID, routeID)
}

// lockRoute resolves the route a check-in targets before the lock is taken.
func (s *checkInService) lockRoute(ctx context.Context, req CheckInRequest) (uuid.UUID, error) {
	if req.ItineraryID == uuid.Nil {
		return req.RouteID, nil
	}
	it, err := s.itineraries.GetByID(dbctx.Context{Ctx: ctx}, req.ItineraryID)
	if err != nil {
		return uuid.Nil, storeError("itinerary", err)
	}
	if it.UserID != req.UserID {
		return uuid.Nil, NotFoundError("itinerary")
	}
	if req.RouteID != uuid.Nil && req.RouteID != it.RouteID {
		return uuid.Nil, ValidationError("itinerary %s is for a different route", it.ID)
	}
	return it.RouteID, nil
}

// requestHash fingerprints the payload so a reused idempotency key with different
// content is refused instead of replayed.
func requestHash(req CheckInRequest, v *ValidatedCheckIn) string {
	h := sha256.New()
	parts := []string{
		req.RouteID.String(),
		req.ItineraryID.String(),
		strconv.FormatFloat(v.Distance, 'f', 1, 64),
		v.Duration,
		v.Feelings,
	}
	if !req.CompletedAt.IsZero() {
		parts = append(parts, req.CompletedAt.UTC().Format(time.RFC3339))
	}
	for _, f := range v.Files {
		parts = append(parts, f.Upload.Filename, strconv.FormatInt(f.Upload.Size, 10), f.MIME)
	}
	_, _ = h.Write([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}

// claimAttempt returns the attempt row this request owns, or a stored result to replay.
// Without an idempotency key there is nothing to claim.
func (s *checkInService) claimAttempt(ctx context.Context, req CheckInRequest, v *ValidatedCheckIn) (*types.CheckInAttempt, *CheckInResult, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" || s.attempts == nil {
		return nil, nil, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	hash := requestHash(req, v)

	existing, err := s.attempts.GetByKey(dbc, req.UserID, key)
	if err != nil {
		return nil, nil, storeError("check-in attempt", err)
	}
	if existing == nil {
		created, err := s.attempts.Create(dbc, &types.CheckInAttempt{
			UserID:         req.UserID,
			IdempotencyKey: key,
			RequestHash:    hash,
			Status:         types.AttemptInProgress,
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.metrics.IncCheckIn("conflict")
			return nil, nil, ConflictError(CodeCheckInInFlight, "a check-in with this idempotency key is already in progress")
		}
		if err != nil {
			return nil, nil, storeError("check-in attempt", err)
		}
		return created, nil, nil
	}

	if existing.RequestHash != hash {
		s.metrics.IncCheckIn("conflict")
		return nil, nil, ConflictError(CodeIdempotencyKeyReused, "idempotency key was already used for a different check-in")
	}
	switch existing.Status {
	case types.AttemptCompleted:
		var stored CheckInResult
		if err := json.Unmarshal(existing.Result, &stored); err != nil {
			return nil, nil, fmt.Errorf("decode stored check-in result: %w", err)
		}
		stored.Replayed = true
		return nil, &stored, nil
	case types.AttemptFailed:
		ok, err := s.attempts.Reclaim(dbc, existing.ID, hash)
		if err != nil {
			return nil, nil, storeError("check-in attempt", err)
		}
		if !ok {
			s.metrics.IncCheckIn("conflict")
			return nil, nil, ConflictError(CodeCheckInInFlight, "a check-in with this idempotency key is already in progress")
		}
		existing.Status = types.AttemptInProgress
		return existing, nil, nil
	default:
		staleBefore := s.now().Add(-s.cfg.LockTTL)
		if existing.UpdatedAt.After(staleBefore) {
			s.metrics.IncCheckIn("conflict")
			return nil, nil, ConflictError(CodeCheckInInFlight, "a check-in with this idempotency key is already in progress")
		}
		// Older than the lock TTL: its request is gone. A record id means the commit
		// happened and only the completion write was lost.
		if existing.RecordID != nil {
			res, err := s.recoverResult(ctx, existing)
			if err != nil {
				return nil, nil, err
			}
			return nil, res, nil
		}
		ok, err := s.attempts.ReclaimStale(dbc, existing.ID, staleBefore)
		if err != nil {
			return nil, nil, storeError("check-in attempt", err)
		}
		if !ok {
			s.metrics.IncCheckIn("conflict")
			return nil, nil, ConflictError(CodeCheckInInFlight, "a check-in with this idempotency key is already in progress")
		}
		return existing, nil, nil
	}
}

// recoverResult rebuilds the outcome of a committed attempt whose result was never
// stored, and stores it.
func (s *checkInService) recoverResult(ctx context.Context, attempt *types.CheckInAttempt) (*CheckInResult, error) {
	rec, err := s.records.GetByID(dbctx.Context{Ctx: ctx}, *attempt.RecordID)
	if err != nil {
		return nil, storeError("hiking record", err)
	}
	res := &CheckInResult{
		Itinerary:   rec.Itinerary,
		Record:      rec,
		Media:       make([]*types.Media, 0, len(rec.Media)),
		Warnings:    []string{},
		FailedMedia: []FailedMedia{},
	}
	for i := range rec.Media {
		res.Media = append(res.Media, &rec.Media[i])
	}
	if err := s.completeAttempt(ctx, attempt, res); err != nil {
		s.log.Warn("store recovered check-in result", "attempt_id", attempt.ID, "error", err)
	}
	s.log.Info("check-in attempt recovered", "attempt_id", attempt.ID, "record_id", rec.ID)
	res.Replayed = true
	return res, nil
}

// commitRecord resolves the itinerary and creates the record in one transaction, so a
// failure leaves neither a new Completed itinerary nor a flipped Pending one behind.
func (s *checkInService) commitRecord(ctx context.Context, req CheckInRequest, v *ValidatedCheckIn, attempt *types.CheckInAttempt) (*types.Itinerary, *types.HikingRecord, uuid.UUID, error) {
	completedAt := req.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	completedAt = completedAt.UTC()

	var (
		it     *types.Itinerary
		rec    *types.HikingRecord
		sagaID uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		var err error
		it, err = s.resolveItinerary(dbc, req, completedAt)
		if err != nil {
			return err
		}
		rec, err = s.records.Create(dbc, &types.HikingRecord{
			ItineraryID: it.ID,
			UserID:      req.UserID,
			RouteID:     it.RouteID,
			CompletedAt: completedAt,
			Feelings:    v.Feelings,
			Distance:    v.Distance,
			Duration:    v.Duration,
		})
		if err != nil {
			return storeError("hiking record", err)
		}
		if len(v.Files) > 0 && s.saga != nil {
			sagaID, err = s.saga.CreateOrGetSaga(dbc, req.UserID, "checkin:"+rec.ID.String())
			if err != nil {
				return storeError("saga", err)
			}
		}
		if attempt != nil {
			if err := s.attempts.UpdateFields(dbc, attempt.ID, map[string]interface{}{
				"itinerary_id": it.ID,
				"record_id":    rec.ID,
			}); err != nil {
				return storeError("check-in attempt", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("check-in transaction rolled back", "user_id", req.UserID, "error", err)
		return nil, nil, uuid.Nil, err
	}
	return it, rec, sagaID, nil
}

func (s *checkInService) resolveItinerary(dbc dbctx.Context, req CheckInRequest, completedAt time.Time) (*types.Itinerary, error) {
	if req.ItineraryID != uuid.Nil {
		it, err := s.itineraries.LockByID(dbc, req.ItineraryID)
		if err != nil {
			return nil, storeError("itinerary", err)
		}
		if it.UserID != req.UserID {
			return nil, NotFoundError("itinerary")
		}
		if req.RouteID != uuid.Nil && req.RouteID != it.RouteID {
			return nil, ValidationError("itinerary %s is for a different route", it.ID)
		}
		if it.Status == types.ItineraryCompleted {
			return it, nil
		}
		return s.itinerary.Complete(dbc, it.ID)
	}

	if _, err := s.routes.GetByID(dbc, req.RouteID); err != nil {
		return nil, storeError("route", err)
	}
	pending, err := s.itineraries.FindPendingForRoute(dbc, req.UserID, req.RouteID)
	if err != nil {
		return nil, storeError("itinerary", err)
	}
	if pending != nil {
		return s.itinerary.Complete(dbc, pending.ID)
	}
	return s.itinerary.BackfillCompleted(dbc, req.UserID, req.RouteID, completedAt)
}

// uploadMedia stores files one at a time. A failed file is logged, reported and skipped;
// anything it may have left in the bucket is queued on the saga for deletion.
func (s *checkInService) uploadMedia(ctx context.Context, userID uuid.UUID, rec *types.HikingRecord, sagaID uuid.UUID, files []ValidatedMedia, result *CheckInResult) {
	orphans := 0
	for i, f := range files {
		key := MediaObjectKey(userID, rec.ID, i, f.Ext, s.now())
		row, err := s.storeOne(ctx, userID, rec.ID, key, f)
		if err == nil {
			result.Media = append(result.Media, row)
			rec.Media = append(rec.Media, *row)
			s.metrics.IncMediaUpload(f.Kind, "uploaded")
			continue
		}

		s.metrics.IncMediaUpload(f.Kind, "failed")
		s.log.Warn("check-in media skipped", "record_id", rec.ID, "index", i, "filename", f.Upload.Filename, "error", err)
		result.FailedMedia = append(result.FailedMedia, FailedMedia{Index: i, Filename: f.Upload.Filename, Error: err.Error()})
		if s.saga != nil && sagaID != uuid.Nil {
			if aerr := s.saga.AppendBlobDelete(dbctx.Context{Ctx: ctx}, sagaID, objectstore.CategoryMedia, key); aerr != nil {
				s.log.Warn("queue orphan media delete failed", "key", key, "error", aerr)
				continue
			}
			orphans++
		}
	}

	if s.saga == nil || sagaID == uuid.Nil {
		return
	}
	if orphans == 0 {
		if err := s.saga.MarkSagaStatus(ctx, sagaID, SagaStatusSucceeded); err != nil {
			s.log.Warn("mark check-in saga succeeded", "saga_id", sagaID, "error", err)
		}
		return
	}
	if _, err := s.saga.Compensate(context.WithoutCancel(ctx), sagaID); err != nil {
		s.log.Warn("orphan media cleanup failed", "saga_id", sagaID, "error", err)
	}
}

func (s *checkInService) storeOne(ctx context.Context, userID, recordID uuid.UUID, key string, f ValidatedMedia) (*types.Media, error) {
	if s.bucket == nil {
		return nil, fmt.Errorf("object storage unavailable")
	}
	if f.Upload.Open == nil {
		return nil, fmt.Errorf("file has no content")
	}
	rc, err := f.Upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	dbc := dbctx.Context{Ctx: ctx}
	if err := s.bucket.UploadFile(dbc, objectstore.CategoryMedia, key, rc); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	row, err := s.media.Create(dbc, &types.Media{
		RecordID:   recordID,
		UserID:     userID,
		Type:       f.Kind,
		URL:        s.bucket.GetPublicURL(objectstore.CategoryMedia, key),
		StorageKey: key,
	})
	if err != nil {
		return nil, fmt.Errorf("save media row: %w", err)
	}
	return row, nil
}

func (s *checkInService) failAttempt(ctx context.Context, attempt *types.CheckInAttempt) {
	if attempt == nil {
		return
	}
	if err := s.attempts.UpdateFields(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, attempt.ID, map[string]interface{}{
		"status": types.AttemptFailed,
	}); err != nil {
		s.log.Warn("mark check-in attempt failed", "attempt_id", attempt.ID, "error", err)
	}
}

// completeAttempt stores the result for replay. If it fails the attempt stays
// in_progress with its record id and claimAttempt recovers it once it goes stale.
func (s *checkInService) completeAttempt(ctx context.Context, attempt *types.CheckInAttempt, result *CheckInResult) error {
	if attempt == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode check-in result: %w", err)
	}
	if err := s.attempts.UpdateFields(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, attempt.ID, map[string]interface{}{
		"status": types.AttemptCompleted,
		"result": datatypes.JSON(raw),
	}); err != nil {
		return fmt.Errorf("mark check-in attempt completed: %w", err)
	}
	return nil
}
