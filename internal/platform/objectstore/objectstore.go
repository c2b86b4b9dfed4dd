package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

type Category string

const (
	CategoryAvatar Category = "avatar"
	CategoryMedia  Category = "media"
)

// ErrObjectNotFound is returned (wrapped) by drivers when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Bucket is the storage surface every driver (GCS, S3, memory) implements.
type Bucket interface {
	UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category Category, key string) error
	ListKeys(ctx context.Context, category Category, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, category Category, prefix string) error
	GetPublicURL(category Category, key string) string
}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryAvatar:
		return CategoryAvatar, nil
	case CategoryMedia:
		return CategoryMedia, nil
	default:
		return "", errors.New("unknown bucket category: " + raw)
	}
}

// IsNotFound reports whether err means the object is already gone.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not found") ||
		strings.Contains(s, "nosuchkey") ||
		strings.Contains(s, "doesn't exist") ||
		strings.Contains(s, "does not exist")
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	default:
		return ""
	}
}
