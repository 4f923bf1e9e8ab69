package repository

import (
	"context"
	"sync"

	"book_story_service/internal/chat/domain"
)

// ChangeFeed delivers committed messages to every subscribed hub, in commit order
type ChangeFeed interface {
	Publish(ctx context.Context, room string, msg domain.ChatMessage) error
	// Subscribe registers handler for room and returns once the subscription is live.
	// handler is called from a single goroutine until ctx is done.
	Subscribe(ctx context.Context, room string, handler func(domain.ChatMessage)) error
}

// RoomChannel redis/kafka routing key of a room
func RoomChannel(room string) string {
	return "chat:room:" + room
}

type memorySubscriber struct {
	handler func(domain.ChatMessage)
}

// MemoryFeed in-process change feed for single node deployments.
// Publish delivers synchronously, so commit order is kept.
type MemoryFeed struct {
	mu   sync.RWMutex
	subs map[string]map[*memorySubscriber]struct{}
}

// NewMemoryFeed create MemoryFeed
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[*memorySubscriber]struct{})}
}

// Publish calls every handler subscribed to room
func (f *MemoryFeed) Publish(_ context.Context, room string, msg domain.ChatMessage) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs[room] {
		sub.handler(msg)
	}
	return nil
}

// Subscribe registers handler until ctx is done
func (f *MemoryFeed) Subscribe(ctx context.Context, room string, handler func(domain.ChatMessage)) error {
	sub := &memorySubscriber{handler: handler}

	f.mu.Lock()
	if f.subs[room] == nil {
		f.subs[room] = make(map[*memorySubscriber]struct{})
	}
	f.subs[room][sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs[room], sub)
		f.mu.Unlock()
	}()
	return nil
}
