package app

import (
	"time"

	"github.com/yungbote/trailhead-backend/internal/platform/envutil"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type Config struct {
	Environment string

	JWTSecretKey         string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	ResetTokenTTL        time.Duration
	SecurityAnswerPepper string

	Port            string
	AdminPort       string
	CORSOrigins     []string
	MaxBodyBytes    int64
	CheckInMaxBody  int64
	ShutdownTimeout time.Duration

	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	CheckInLockTTL       time.Duration
	ProfileUpdateTimeout time.Duration

	SagaRetryInterval time.Duration
	SagaRetryAge      time.Duration
	SagaRetryBatch    int

	AvatarColorsPath string
	AvatarFontPath   string

	MetricsEnabled bool
	TracingEnabled bool

	SeedCatalogPath string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Environment: envutil.String("ENVIRONMENT", "development", log),

		JWTSecretKey:         envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:       envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour, log),
		RefreshTokenTTL:      envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour, log),
		ResetTokenTTL:        envutil.Seconds("RESET_TOKEN_TTL", 10*time.Minute, log),
		SecurityAnswerPepper: envutil.String("SECURITY_ANSWER_PEPPER", "", log),

		Port:            envutil.String("PORT", "8080", log),
		AdminPort:       envutil.String("ADMIN_PORT", "8081", log),
		CORSOrigins:     envutil.List("CORS_ALLOWED_ORIGINS", nil, log),
		MaxBodyBytes:    int64(envutil.Int("MAX_BODY_MB", 64, log)) << 20,
		CheckInMaxBody:  int64(envutil.Int("CHECKIN_MAX_BODY_MB", int(services.MaxCheckInBodyBytes>>20), log)) << 20,
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second, log),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", "", log),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", "", log),

		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),
		RedisChannel:  envutil.String("REDIS_CHANNEL", "trailhead-events", log),

		CheckInLockTTL:       envutil.Seconds("CHECKIN_LOCK_TTL_SECONDS", 30*time.Second, log),
		ProfileUpdateTimeout: envutil.Seconds("PROFILE_UPDATE_TIMEOUT_SECONDS", 10*time.Second, log),

		SagaRetryInterval: envutil.Seconds("SAGA_RETRY_INTERVAL_SECONDS", time.Minute, log),
		SagaRetryAge:      envutil.Seconds("SAGA_RETRY_AGE_SECONDS", 5*time.Minute, log),
		SagaRetryBatch:    envutil.Int("SAGA_RETRY_BATCH", 50, log),

		AvatarColorsPath: envutil.String("AVATAR_COLORS_PATH", "", log),
		AvatarFontPath:   envutil.String("AVATAR_FONT_PATH", "", log),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false, log),
		TracingEnabled: envutil.Bool("OTEL_ENABLED", false, log),

		SeedCatalogPath: envutil.String("SEED_CATALOG_PATH", "", log),
	}
}
