package realtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/pkg/logger"

	"go.uber.org/zap"
)

// Status subscription status of a channel
type Status string

const (
	// StatusConnecting opened, join not confirmed yet
	StatusConnecting Status = "connecting"
	// StatusSubscribed the server confirmed the join
	StatusSubscribed Status = "subscribed"
	// StatusErrored the join was refused or the transport broke
	StatusErrored Status = "errored"
	// StatusClosed closed locally
	StatusClosed Status = "closed"
)

var (
	// ErrNotSubscribed track before the subscription is confirmed
	ErrNotSubscribed = errors.New("channel is not subscribed")
	// ErrChannelClosed operation on a closed channel
	ErrChannelClosed = errors.New("channel is closed")
	// ErrAlreadySubscribed subscribe called twice
	ErrAlreadySubscribed = errors.New("channel already subscribed")
)

// Snapshot presence state delivered on every sync
type Snapshot struct {
	Keys  []string
	State domain.PresenceState
}

// StatusHandler observes status changes; err is set for StatusErrored
type StatusHandler func(status Status, err error)

// Channel a client subscription to one room.
// Every handler runs on the channel dispatch goroutine, in arrival order.
type Channel struct {
	room      string
	identity  string
	transport Transport

	mu               sync.Mutex
	status           Status
	subscribed       bool
	closed           bool
	onStatus         StatusHandler
	messageHandlers  []func(domain.ChatMessage)
	presenceHandlers []func(Snapshot)
	presence         domain.PresenceState

	dispatchDone chan struct{}
}

// Open dials the realtime server. The channel starts in StatusConnecting.
func Open(ctx context.Context, dial Dialer, room, identity string) (*Channel, error) {
	t, err := dial(ctx, room, identity)
	if err != nil {
		if errors.Is(err, ErrConnection) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return &Channel{
		room:         room,
		identity:     identity,
		transport:    t,
		status:       StatusConnecting,
		presence:     domain.PresenceState{},
		dispatchDone: make(chan struct{}),
	}, nil
}

// Room name of the channel
func (c *Channel) Room() string {
	return c.room
}

// Identity the channel was opened for
func (c *Channel) Identity() string {
	return c.identity
}

// Status current status
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// OnMessageInserted registers a handler for committed messages. No-op once closed.
func (c *Channel) OnMessageInserted(handler func(domain.ChatMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.messageHandlers = append(c.messageHandlers, handler)
}

// OnPresenceSync registers a handler for presence snapshots. No-op once closed.
func (c *Channel) OnPresenceSync(handler func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.presenceHandlers = append(c.presenceHandlers, handler)
}

// Subscribe starts delivery and asks the server to join the room.
// onStatus reports subscribed or errored; it may be nil.
func (c *Channel) Subscribe(ctx context.Context, onStatus StatusHandler) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.subscribed {
		c.mu.Unlock()
		return ErrAlreadySubscribed
	}
	c.subscribed = true
	c.onStatus = onStatus
	c.mu.Unlock()

	go c.dispatch()

	if err := c.transport.Send(ctx, domain.Envelope{Event: domain.EventJoin, Room: c.room}); err != nil {
		c.fail(fmt.Errorf("%w: %v", ErrConnection, err))
		return err
	}
	return nil
}

// Track publishes this connection in the room presence
func (c *Channel) Track(ctx context.Context, meta domain.PresenceMeta) error {
	c.mu.Lock()
	status, closed := c.status, c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	if status != StatusSubscribed {
		return ErrNotSubscribed
	}
	return c.transport.Send(ctx, domain.Envelope{Event: domain.EventTrack, Room: c.room, Meta: &meta})
}

// State last presence snapshot received
func (c *Channel) State() domain.PresenceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence.Clone()
}

// Messages the change feed side of the channel
func (c *Channel) Messages() ChangeFeed[domain.ChatMessage] {
	return messageFeed{c}
}

// Presence the presence side of the channel, bound to the same connection
func (c *Channel) Presence() PresenceRegistry {
	return c
}

// Close leaves the room, releases the transport and drops every handler.
// Safe to call more than once; no handler runs after Close returns.
// Close must not be called from inside a handler.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.status = StatusClosed
	c.onStatus = nil
	c.messageHandlers = nil
	c.presenceHandlers = nil
	subscribed := c.subscribed
	c.mu.Unlock()

	if subscribed {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = c.transport.Send(ctx, domain.Envelope{Event: domain.EventLeave, Room: c.room})
		cancel()
	}
	err := c.transport.Close()
	if subscribed {
		<-c.dispatchDone
	}
	return err
}

func (c *Channel) dispatch() {
	defer close(c.dispatchDone)

	for env := range c.transport.Receive() {
		switch env.Event {
		case domain.EventSubscribed:
			c.setStatus(StatusSubscribed, nil)
		case domain.EventPresenceSync:
			c.deliverPresence(env.Presence)
		case domain.EventMessageInserted:
			if env.Message != nil {
				c.deliverMessage(*env.Message)
			}
		case domain.EventError:
			if env.Ref == string(domain.EventJoin) {
				c.fail(errors.New(env.Error))
				continue
			}
			logger.Log.Warn("realtime server error", zap.String("ref", env.Ref), zap.String("error", env.Error))
		}
	}

	err := c.transport.Err()
	if err == nil {
		err = ErrTransportClosed
	}
	c.fail(fmt.Errorf("%w: %v", ErrConnection, err))
}

// fail moves to StatusErrored unless closed
func (c *Channel) fail(err error) {
	c.setStatus(StatusErrored, err)
}

func (c *Channel) setStatus(status Status, err error) {
	c.mu.Lock()
	if c.closed || c.status == status {
		c.mu.Unlock()
		return
	}
	c.status = status
	handler := c.onStatus
	c.mu.Unlock()

	if handler != nil {
		handler(status, err)
	}
}

func (c *Channel) deliverPresence(state domain.PresenceState) {
	if state == nil {
		state = domain.PresenceState{}
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.presence = state
	handlers := slices.Clone(c.presenceHandlers)
	c.mu.Unlock()

	snap := Snapshot{Keys: state.Keys(), State: state}
	for _, h := range handlers {
		h(snap)
	}
}

func (c *Channel) deliverMessage(msg domain.ChatMessage) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	handlers := slices.Clone(c.messageHandlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}
