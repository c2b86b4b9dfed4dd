package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
)

// MemoryBucket keeps objects in a map. Used for local runs (OBJECT_STORAGE_MODE=memory)
// and in tests.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string

	// FailUpload, when set, is consulted before every upload.
	FailUpload func(key string) error
}

func NewMemoryBucket(baseURL string) *MemoryBucket {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "memory://objects"
	}
	return &MemoryBucket{objects: map[string][]byte{}, baseURL: strings.TrimRight(baseURL, "/")}
}

func objectID(category Category, key string) string {
	return string(category) + "/" + strings.TrimLeft(key, "/")
}

func (m *MemoryBucket) UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader) error {
	if m.FailUpload != nil {
		if err := m.FailUpload(key); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(category, key)] = buf.Bytes()
	return nil
}

func (m *MemoryBucket) DeleteFile(dbc dbctx.Context, category Category, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := objectID(category, key)
	if _, ok := m.objects[id]; !ok {
		return fmt.Errorf("delete %q: %w", key, ErrObjectNotFound)
	}
	delete(m.objects, id)
	return nil
}

func (m *MemoryBucket) ListKeys(ctx context.Context, category Category, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	catPrefix := string(category) + "/"
	out := []string{}
	for id := range m.objects {
		if !strings.HasPrefix(id, catPrefix) {
			continue
		}
		key := strings.TrimPrefix(id, catPrefix)
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryBucket) DeletePrefix(ctx context.Context, category Category, prefix string) error {
	keys, err := m.ListKeys(ctx, category, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		_ = m.DeleteFile(dbctx.Context{Ctx: ctx}, category, k)
	}
	return nil
}

func (m *MemoryBucket) GetPublicURL(category Category, key string) string {
	return fmt.Sprintf("%s/%s/%s", m.baseURL, category, strings.TrimLeft(key, "/"))
}

// Has reports whether an object exists.
func (m *MemoryBucket) Has(category Category, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectID(category, key)]
	return ok
}

// Len is the total number of stored objects.
func (m *MemoryBucket) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
