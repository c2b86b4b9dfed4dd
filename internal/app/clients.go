package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/db"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/locks"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
	"github.com/yungbote/trailhead-backend/internal/platform/redisclient"
	"github.com/yungbote/trailhead-backend/internal/realtime"
	"github.com/yungbote/trailhead-backend/internal/realtime/bus"
)

type Clients struct {
	DBService *db.Service
	DB        *gorm.DB
	Redis     *goredis.Client
	Bucket    objectstore.Bucket
	Bus       bus.Bus
	Locker    locks.Locker
	Hub       *realtime.Hub
	Metrics   *observability.Metrics
}

// wireClients opens the database and the optional infrastructure. Without REDIS_ADDR the
// lock and the event bus fall back to in-process implementations (single replica only).
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	metrics := observability.Init(log)

	// Database
	dbs, err := db.NewService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}

	// Redis
	rdb, err := redisclient.New(log, redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	var (
		eventBus bus.Bus
		locker   locks.Locker
	)
	if rdb != nil {
		eventBus, err = bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			_ = rdb.Close()
			_ = dbs.Close()
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		locker = locks.NewRedisLocker(rdb)
	} else {
		log.Warn("REDIS_ADDR not set; using in-process locks and event bus")
		eventBus = bus.NewLocalBus()
		locker = locks.NewMemoryLocker()
	}

	// Object storage
	bucket, err := resolveBucketService(ctx, log, cfg, metrics)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = dbs.Close()
		return Clients{}, err
	}

	return Clients{
		DBService: dbs,
		DB:        dbs.DB(),
		Redis:     rdb,
		Bucket:    bucket,
		Bus:       eventBus,
		Locker:    locker,
		Hub:       realtime.NewHub(log),
		Metrics:   metrics,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DBService != nil {
		_ = c.DBService.Close()
	}
}
