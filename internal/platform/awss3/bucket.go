package awss3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

// Config describes an S3-compatible backend (AWS S3 or MinIO).
//
// Environment:
//
//	S3_REGION (default us-east-1)
//	S3_ENDPOINT (optional, e.g. http://minio:9000)
//	S3_PATH_STYLE=true|false
//	S3_ACCESS_KEY_ID / S3_SECRET_ACCESS_KEY (optional, default credential chain otherwise)
//	AVATAR_S3_BUCKET / MEDIA_S3_BUCKET (required)
//	AVATAR_CDN_DOMAIN / MEDIA_CDN_DOMAIN (optional)
type Config struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	AvatarBucket    string
	MediaBucket     string
	AvatarCDNDomain string
	MediaCDNDomain  string
	PublicBaseURL   string
}

func ConfigFromEnv() Config {
	return Config{
		Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
		Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		PathStyle:       strings.EqualFold(strings.TrimSpace(os.Getenv("S3_PATH_STYLE")), "true"),
		AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		AvatarBucket:    strings.TrimSpace(os.Getenv("AVATAR_S3_BUCKET")),
		MediaBucket:     strings.TrimSpace(os.Getenv("MEDIA_S3_BUCKET")),
		AvatarCDNDomain: strings.TrimSpace(os.Getenv("AVATAR_CDN_DOMAIN")),
		MediaCDNDomain:  strings.TrimSpace(os.Getenv("MEDIA_CDN_DOMAIN")),
		PublicBaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")), "/"),
	}
}

type bucketService struct {
	log    *logger.Logger
	client *s3.Client
	cfg    Config
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg Config) (objectstore.Bucket, error) {
	if cfg.AvatarBucket == "" {
		return nil, fmt.Errorf("missing env var AVATAR_S3_BUCKET")
	}
	if cfg.MediaBucket == "" {
		return nil, fmt.Errorf("missing env var MEDIA_S3_BUCKET")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	serviceLog := log.With("service", "S3BucketService")
	serviceLog.Info("Object storage initialized",
		"mode", objectstore.ModeS3,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"avatar_bucket", cfg.AvatarBucket,
		"media_bucket", cfg.MediaBucket,
	)
	return &bucketService{log: serviceLog, client: client, cfg: cfg}, nil
}

func (bs *bucketService) bucketFor(category objectstore.Category) (string, string, error) {
	switch category {
	case objectstore.CategoryAvatar:
		return bs.cfg.AvatarBucket, bs.cfg.AvatarCDNDomain, nil
	case objectstore.CategoryMedia:
		return bs.cfg.MediaBucket, bs.cfg.MediaCDNDomain, nil
	default:
		return "", "", fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category objectstore.Category, key string, file io.Reader) error {
	bucket, _, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	// PutObject needs a seekable body to sign over plain HTTP endpoints.
	body, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if ct := objectstore.ContentTypeForKey(key); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := bs.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put S3 object %q in bucket %q: %w", key, bucket, err)
	}
	return nil
}

// DeleteFile succeeds for missing keys; S3 does not report them.
func (bs *bucketService) DeleteFile(dbc dbctx.Context, category objectstore.Category, key string) error {
	bucket, _, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	if _, err := bs.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("failed to delete S3 object %q in bucket %q: %w", key, bucket, err)
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, category objectstore.Category, prefix string) ([]string, error) {
	bucket, _, err := bs.bucketFor(category)
	if err != nil {
		return nil, err
	}
	out := []string{}
	var token *string
	for {
		page, err := bs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			out = append(out, aws.ToString(obj.Key))
		}
		if aws.ToBool(page.IsTruncated) && page.NextContinuationToken != nil {
			token = page.NextContinuationToken
			continue
		}
		break
	}
	return out, nil
}

func (bs *bucketService) DeletePrefix(ctx context.Context, category objectstore.Category, prefix string) error {
	keys, err := bs.ListKeys(ctx, category, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := bs.DeleteFile(dbctx.Context{Ctx: ctx}, category, k); err != nil {
			bs.log.Warn("delete under prefix failed", "prefix", prefix, "key", k, "error", err)
		}
	}
	return nil
}

func (bs *bucketService) GetPublicURL(category objectstore.Category, key string) string {
	bucket, cdn, err := bs.bucketFor(category)
	if err != nil {
		return key
	}
	return publicURL(bs.cfg, bucket, cdn, key)
}

func publicURL(cfg Config, bucket, cdn, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cdn != "" {
		return fmt.Sprintf("https://%s/%s", cdn, key)
	}
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, bucket, key)
	}
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, bucket, key)
		}
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
