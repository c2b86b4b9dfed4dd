package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/locks"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
	"github.com/yungbote/trailhead-backend/internal/realtime/bus"
)

type harness struct {
	ctx    context.Context
	db     *gorm.DB
	log    *logger.Logger
	bucket *objectstore.MemoryBucket
	locker *locks.MemoryLocker
	bus    *bus.LocalBus

	accounts    repos.UserAccountRepo
	tokens      repos.UserTokenRepo
	profiles    repos.ProfileRepo
	cities      repos.CityRepo
	routes      repos.RouteRepo
	tags        repos.TagRepo
	routeTags   repos.RouteTagRepo
	sections    repos.RouteSectionRepo
	itineraries repos.ItineraryRepo
	records     repos.HikingRecordRepo
	media       repos.MediaRepo
	favorites   repos.FavoriteRepo
	attempts    repos.CheckInAttemptRepo
	sagaRuns    repos.SagaRunRepo
	sagaActions repos.SagaActionRepo

	notifier  HikingNotifier
	saga      SagaService
	itinerary ItineraryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	h := &harness{
		ctx:    context.Background(),
		db:     db,
		log:    log,
		bucket: objectstore.NewMemoryBucket("https://cdn.test"),
		locker: locks.NewMemoryLocker(),
		bus:    bus.NewLocalBus(),

		accounts:    repos.NewUserAccountRepo(db, log),
		tokens:      repos.NewUserTokenRepo(db, log),
		profiles:    repos.NewProfileRepo(db, log),
		cities:      repos.NewCityRepo(db, log),
		routes:      repos.NewRouteRepo(db, log),
		tags:        repos.NewTagRepo(db, log),
		routeTags:   repos.NewRouteTagRepo(db, log),
		sections:    repos.NewRouteSectionRepo(db, log),
		itineraries: repos.NewItineraryRepo(db, log),
		records:     repos.NewHikingRecordRepo(db, log),
		media:       repos.NewMediaRepo(db, log),
		favorites:   repos.NewFavoriteRepo(db, log),
		attempts:    repos.NewCheckInAttemptRepo(db, log),
		sagaRuns:    repos.NewSagaRunRepo(db, log),
		sagaActions: repos.NewSagaActionRepo(db, log),
	}
	h.notifier = NewHikingNotifier(&BusEmitter{Bus: h.bus, Log: log})
	h.saga = NewSagaService(db, log, h.sagaRuns, h.sagaActions, h.bucket, nil)
	h.itinerary = NewItineraryService(db, log, h.itineraries, h.records, h.routes, h.notifier)
	return h
}

func (h *harness) checkIns() CheckInService {
	return NewCheckInService(h.db, h.log, h.itinerary, h.itineraries, h.records, h.media, h.routes,
		h.attempts, h.saga, h.bucket, h.locker, h.notifier, nil, CheckInConfig{})
}

func (h *harness) recordService() RecordService {
	return NewRecordService(h.db, h.log, h.records, h.media, h.itineraries, h.itinerary, h.saga, h.notifier, nil)
}

func memUpload(name, contentType, body string) MediaUpload {
	return MediaUpload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

// pngHeader is enough of a PNG for content sniffing.
const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func dbcFor(h *harness) dbctx.Context {
	return dbctx.Context{Ctx: h.ctx}
}
