package realtime

import (
	"context"

	"book_story_service/internal/chat/domain"
)

// ChangeFeed is the change-notification side of a channel
type ChangeFeed[T any] interface {
	// OnInserted registers a handler called once per committed row, in commit order
	OnInserted(handler func(T))
}

// PresenceRegistry is the presence side of a channel
type PresenceRegistry interface {
	OnPresenceSync(handler func(Snapshot))
	Track(ctx context.Context, meta domain.PresenceMeta) error
	State() domain.PresenceState
}

// Subscription both capabilities of one connection plus its lifecycle
type Subscription interface {
	Messages() ChangeFeed[domain.ChatMessage]
	Presence() PresenceRegistry
	Subscribe(ctx context.Context, onStatus StatusHandler) error
	Close() error
}

// Opener opens a subscription to room for identity
type Opener func(ctx context.Context, room, identity string) (Subscription, error)

// DialOpener opens websocket (or in-process) channels through dial
func DialOpener(dial Dialer) Opener {
	return func(ctx context.Context, room, identity string) (Subscription, error) {
		ch, err := Open(ctx, dial, room, identity)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

type messageFeed struct {
	c *Channel
}

func (f messageFeed) OnInserted(handler func(domain.ChatMessage)) {
	f.c.OnMessageInserted(handler)
}

var (
	_ Subscription     = (*Channel)(nil)
	_ PresenceRegistry = (*Channel)(nil)
)
