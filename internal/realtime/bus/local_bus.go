package bus

import (
	"context"
	"sync"

	"github.com/yungbote/trailhead-backend/internal/realtime"
)

// LocalBus delivers in-process. Used when REDIS_ADDR is unset and in tests.
type LocalBus struct {
	mu        sync.RWMutex
	handlers  []func(realtime.Message)
	published []realtime.Message
}

func NewLocalBus() *LocalBus { return &LocalBus{} }

func (b *LocalBus) Publish(ctx context.Context, msg realtime.Message) error {
	b.mu.Lock()
	b.published = append(b.published, msg)
	handlers := append([]func(realtime.Message){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

func (b *LocalBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *LocalBus) Close() error { return nil }

// Published returns a copy of every message seen so far.
func (b *LocalBus) Published() []realtime.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]realtime.Message{}, b.published...)
}
