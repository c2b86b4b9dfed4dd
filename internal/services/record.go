package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

type RecordDeleteResult struct {
	RecordID             uuid.UUID `json:"record_id"`
	ItineraryID          uuid.UUID `json:"itinerary_id"`
	MediaDeleted         int64     `json:"media_deleted"`
	ItinerarySoftDeleted bool      `json:"itinerary_soft_deleted"`
	BlobDeletesFailed    int       `json:"blob_deletes_failed"`
}

type RecordService interface {
	Get(ctx context.Context, userID, recordID uuid.UUID) (*types.HikingRecord, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.HikingRecord, error)
	// Delete removes media rows, the record, and the itinerary (soft) once it has no
	// records left, all in one transaction. Stored objects are removed after commit.
	Delete(ctx context.Context, userID, recordID uuid.UUID) (*RecordDeleteResult, error)
}

type recordService struct {
	db          *gorm.DB
	log         *logger.Logger
	records     repos.HikingRecordRepo
	media       repos.MediaRepo
	itineraries repos.ItineraryRepo
	itinerary   ItineraryService
	saga        SagaService
	notifier    HikingNotifier
	metrics     *observability.Metrics
}

func NewRecordService(
	db *gorm.DB,
	baseLog *logger.Logger,
	records repos.HikingRecordRepo,
	media repos.MediaRepo,
	itineraries repos.ItineraryRepo,
	itinerary ItineraryService,
	saga SagaService,
	notifier HikingNotifier,
	metrics *observability.Metrics,
) RecordService {
	if notifier == nil {
		notifier = NewHikingNotifier(nil)
	}
	return &recordService{
		db:          db,
		log:         baseLog.With("service", "RecordService"),
		records:     records,
		media:       media,
		itineraries: itineraries,
		itinerary:   itinerary,
		saga:        saga,
		notifier:    notifier,
		metrics:     metrics,
	}
}

func (s *recordService) Get(ctx context.Context, userID, recordID uuid.UUID) (*types.HikingRecord, error) {
	rec, err := s.records.GetByID(dbctx.Context{Ctx: ctx}, recordID)
	if err != nil {
		return nil, storeError("hiking record", err)
	}
	if rec.UserID != userID {
		return nil, NotFoundError("hiking record")
	}
	return rec, nil
}

func (s *recordService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.HikingRecord, error) {
	out, err := s.records.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, storeError("hiking records", err)
	}
	if out == nil {
		out = []*types.HikingRecord{}
	}
	return out, nil
}

func (s *recordService) Delete(ctx context.Context, userID, recordID uuid.UUID) (*RecordDeleteResult, error) {
	res := &RecordDeleteResult{RecordID: recordID}
	var (
		sagaID    uuid.UUID
		itinerary *types.Itinerary
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		rec, err := s.records.GetByID(dbc, recordID)
		if err != nil {
			return storeError("hiking record", err)
		}
		if rec.UserID != userID {
			return NotFoundError("hiking record")
		}
		res.ItineraryID = rec.ItineraryID

		media, err := s.media.ListByRecord(dbc, recordID)
		if err != nil {
			return storeError("media", err)
		}
		if len(media) > 0 && s.saga != nil {
			sagaID, err = s.saga.CreateOrGetSaga(dbc, userID, "record-delete:"+recordID.String())
			if err != nil {
				return storeError("saga", err)
			}
			for _, m := range media {
				if m.StorageKey == "" {
					continue
				}
				if err := s.saga.AppendBlobDelete(dbc, sagaID, objectstore.CategoryMedia, m.StorageKey); err != nil {
					return storeError("saga", err)
				}
			}
		}

		if res.MediaDeleted, err = s.media.DeleteByRecord(dbc, recordID); err != nil {
			return storeError("media", err)
		}
		if err := s.records.Delete(dbc, recordID); err != nil {
			return storeError("hiking record", err)
		}

		remaining, err := s.records.CountByItinerary(dbc, rec.ItineraryID)
		if err != nil {
			return storeError("hiking records", err)
		}
		if remaining > 0 {
			return nil
		}
		it, err := s.itineraries.GetByID(dbc, rec.ItineraryID)
		if isNotFound(err) {
			// already soft deleted by the owner
			return nil
		}
		if err != nil {
			return storeError("itinerary", err)
		}
		if err := s.itinerary.DeleteItinerary(dbc, it.ID, DeleteModeSoft); err != nil && !isNotFound(err) {
			return err
		}
		itinerary = it
		res.ItinerarySoftDeleted = true
		return nil
	})
	if err != nil {
		s.metrics.IncRecordDelete("failed")
		return nil, err
	}

	if sagaID != uuid.Nil {
		failed, cerr := s.saga.Compensate(context.WithoutCancel(ctx), sagaID)
		if cerr != nil {
			s.log.Warn("record media cleanup failed", "record_id", recordID, "saga_id", sagaID, "error", cerr)
		}
		res.BlobDeletesFailed = failed
	}

	s.metrics.IncRecordDelete("deleted")
	s.log.Info("hiking record deleted",
		"record_id", recordID,
		"user_id", userID,
		"media_deleted", res.MediaDeleted,
		"itinerary_soft_deleted", res.ItinerarySoftDeleted,
	)
	s.notifier.RecordDeleted(ctx, userID, recordID, res.ItinerarySoftDeleted)
	if itinerary != nil {
		s.notifier.ItineraryChanged(ctx, userID, itinerary, "deleted")
	}
	return res, nil
}
