package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

type bucketConfig struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   objectstore.Mode
	emulatorHost  string
	avatarBucket  bucketConfig
	mediaBucket   bucketConfig
	publicBaseURL string
}

// NewBucketServiceWithConfig opens a GCS client (real or emulator) serving the avatar
// and hiking media buckets named by AVATAR_GCS_BUCKET_NAME and MEDIA_GCS_BUCKET_NAME.
func NewBucketServiceWithConfig(log *logger.Logger, storageCfg objectstore.Config) (objectstore.Bucket, error) {
	if err := objectstore.ValidateConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if storageCfg.Mode != objectstore.ModeGCS && storageCfg.Mode != objectstore.ModeGCSEmulator {
		return nil, &objectstore.ConfigError{Code: objectstore.ConfigErrorInvalidMode, Mode: string(storageCfg.Mode)}
	}
	serviceLog := log.With("service", "GCSBucketService")

	avatarBucketName := strings.TrimSpace(os.Getenv("AVATAR_GCS_BUCKET_NAME"))
	mediaBucketName := strings.TrimSpace(os.Getenv("MEDIA_GCS_BUCKET_NAME"))
	if avatarBucketName == "" {
		return nil, fmt.Errorf("missing env var AVATAR_GCS_BUCKET_NAME")
	}
	if mediaBucketName == "" {
		return nil, fmt.Errorf("missing env var MEDIA_GCS_BUCKET_NAME")
	}

	publicBaseURL, publicBaseSource, err := objectstore.PublicBaseURL(storageCfg)
	if err != nil {
		return nil, err
	}

	stClient, err := newStorageClientForMode(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"avatar_bucket", avatarBucketName,
		"media_bucket", mediaBucketName,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   storageCfg.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"),
		avatarBucket: bucketConfig{
			name:      avatarBucketName,
			cdnDomain: strings.TrimSpace(os.Getenv("AVATAR_CDN_DOMAIN")),
		},
		mediaBucket: bucketConfig{
			name:      mediaBucketName,
			cdnDomain: strings.TrimSpace(os.Getenv("MEDIA_CDN_DOMAIN")),
		},
		publicBaseURL: publicBaseURL,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg objectstore.Config) (*storage.Client, error) {
	switch storageCfg.Mode {
	case objectstore.ModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case objectstore.ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &objectstore.ConfigError{Code: objectstore.ConfigErrorInvalidMode, Mode: string(storageCfg.Mode)}
	}
}

func (bs *bucketService) getBucketConfig(category objectstore.Category) (bucketConfig, error) {
	switch category {
	case objectstore.CategoryAvatar:
		return bs.avatarBucket, nil
	case objectstore.CategoryMedia:
		return bs.mediaBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category objectstore.Category, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := objectstore.ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category objectstore.Category, key string) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(cfg.name).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete GCS object %q: %w", key, objectstore.ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, category objectstore.Category, prefix string) ([]string, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(cfg.name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) DeletePrefix(ctx context.Context, category objectstore.Category, prefix string) error {
	keys, err := bs.ListKeys(ctx, category, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := bs.DeleteFile(dbctx.Context{Ctx: ctx}, category, k); err != nil && !objectstore.IsNotFound(err) {
			bs.log.Warn("delete under prefix failed", "prefix", prefix, "key", k, "error", err)
		}
	}
	return nil
}

func (bs *bucketService) GetPublicURL(category objectstore.Category, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	if bs.storageMode == objectstore.ModeGCSEmulator {
		if u := bs.emulatorObjectMediaURL(cfg.name, key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, cfg.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}

// The emulator only serves object bytes through the JSON API media endpoint.
func (bs *bucketService) emulatorObjectMediaURL(bucket, key string) string {
	base := strings.TrimRight(strings.TrimSpace(bs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/")
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucket), url.PathEscape(key))
}
