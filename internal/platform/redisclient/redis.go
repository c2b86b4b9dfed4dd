package redisclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// New dials and pings redis. An empty Addr returns (nil, nil) so callers fall back to
// in-process implementations.
func New(log *logger.Logger, cfg Config) (*goredis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("Redis connected", "addr", addr, "db", cfg.DB)
	}
	return rdb, nil
}
