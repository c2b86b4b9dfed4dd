package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/awss3"
	"github.com/yungbote/trailhead-backend/internal/platform/gcp"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

var (
	newGCSBucket = gcp.NewBucketServiceWithConfig
	newS3Bucket  = func(ctx context.Context, log *logger.Logger) (objectstore.Bucket, error) {
		return awss3.NewBucketService(ctx, log, awss3.ConfigFromEnv())
	}
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBucketService picks the media/avatar store from OBJECT_STORAGE_MODE.
func resolveBucketService(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (objectstore.Bucket, error) {
	storageCfg, err := objectstore.ResolveConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.ObserveStorageBootstrap(cfg.ObjectStorageMode, "error", string(code))
		log.Error(
			"Object storage provider selection failed",
			"mode", cfg.ObjectStorageMode,
			"emulator_host", cfg.StorageEmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
	)

	var bucket objectstore.Bucket
	switch storageCfg.Mode {
	case objectstore.ModeS3:
		bucket, err = newS3Bucket(ctx, log)
	case objectstore.ModeMemory:
		base, _, baseErr := objectstore.PublicBaseURL(storageCfg)
		if baseErr != nil {
			err = baseErr
			break
		}
		if base == "" {
			base = "http://localhost:" + cfg.Port + "/media"
		}
		log.Warn("Using in-memory object storage; uploads are lost on restart")
		bucket = objectstore.NewMemoryBucket(base)
	default:
		bucket, err = newGCSBucket(log, storageCfg)
	}
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "error", string(code))
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}
	metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "success", "none")
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg objectstore.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstore.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstore.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstore.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstore.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	mode := string(storageCfg.Mode)
	if cfgErr != nil && cfgErr.Mode != "" {
		mode = cfgErr.Mode
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
