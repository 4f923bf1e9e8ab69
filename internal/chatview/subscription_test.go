package chatview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeSubscription lets a test drive the feed, the registry and the join status by hand
type fakeSubscription struct {
	mu       sync.Mutex
	inserted []func(domain.ChatMessage)
	synced   []func(realtime.Snapshot)
	onStatus realtime.StatusHandler
	tracked  []domain.PresenceMeta
	state    domain.PresenceState
	closed   bool
}

type fakeFeed struct{ s *fakeSubscription }

func (f fakeFeed) OnInserted(handler func(domain.ChatMessage)) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.inserted = append(f.s.inserted, handler)
}

func (s *fakeSubscription) Messages() realtime.ChangeFeed[domain.ChatMessage] { return fakeFeed{s} }

func (s *fakeSubscription) Presence() realtime.PresenceRegistry { return s }

func (s *fakeSubscription) OnPresenceSync(handler func(realtime.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, handler)
}

func (s *fakeSubscription) Track(_ context.Context, meta domain.PresenceMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = append(s.tracked, meta)
	return nil
}

func (s *fakeSubscription) State() domain.PresenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *fakeSubscription) Subscribe(_ context.Context, onStatus realtime.StatusHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = onStatus
	return nil
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSubscription) status(st realtime.Status, err error) {
	s.mu.Lock()
	handler := s.onStatus
	s.mu.Unlock()
	handler(st, err)
}

func (s *fakeSubscription) insert(m domain.ChatMessage) {
	s.mu.Lock()
	handlers := append([]func(domain.ChatMessage){}, s.inserted...)
	s.mu.Unlock()
	for _, h := range handlers {
		h(m)
	}
}

func (s *fakeSubscription) sync(state domain.PresenceState) {
	s.mu.Lock()
	s.state = state
	handlers := append([]func(realtime.Snapshot){}, s.synced...)
	s.mu.Unlock()
	for _, h := range handlers {
		h(realtime.Snapshot{Keys: state.Keys(), State: state})
	}
}

func (s *fakeSubscription) trackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

func (s *fakeSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestController_UsesFeedAndRegistry(t *testing.T) {
	now := time.Now().UTC()
	history := domain.ChatMessage{ID: "h1", Content: "old", SenderIdentity: "bob@y.com", CreatedAt: now}
	live := domain.ChatMessage{ID: "l1", Content: "new", SenderIdentity: "bob@y.com", CreatedAt: now.Add(time.Second)}

	store := new(MockStore)
	store.On("ListAll", mock.Anything).Return([]domain.ChatMessage{history, live}, nil).Once()

	sub := &fakeSubscription{}
	var opened []string
	c := NewController(store, nil, room, WithOpener(func(_ context.Context, r, identity string) (realtime.Subscription, error) {
		assert.Equal(t, room, r)
		opened = append(opened, identity)
		return sub, nil
	}))
	defer c.Close()

	require.NoError(t, c.SetIdentity(context.Background(), "alice@x.com"))
	assert.Equal(t, []string{"alice@x.com"}, opened)
	assert.Equal(t, StateConnecting, c.State())

	sub.insert(live)
	assert.Empty(t, c.Rendered(), "live inserts wait for the history")
	assert.Zero(t, sub.trackCount(), "presence is tracked only after the join is confirmed")

	sub.status(realtime.StatusSubscribed, nil)
	require.Eventually(t, func() bool { return c.State() == StateSubscribed }, waitFor, tick)
	assert.Equal(t, []string{"old", "new"}, contents(c))
	require.Eventually(t, func() bool { return sub.trackCount() == 1 }, waitFor, tick)

	sub.sync(domain.PresenceState{
		"alice@x.com": {{Ref: "1"}},
		"bob@y.com":   {{Ref: "2"}},
	})
	assert.Equal(t, 2, c.OnlineCount())

	c.Close()
	assert.True(t, sub.isClosed())
	store.AssertExpectations(t)
}

// delayedJoinTransport holds the join back so a commit can land before the hub registers the peer
type delayedJoinTransport struct {
	realtime.Transport
	delay time.Duration
}

func (d *delayedJoinTransport) Send(ctx context.Context, env domain.Envelope) error {
	if env.Event != domain.EventJoin {
		return d.Transport.Send(ctx, env)
	}
	go func() {
		time.Sleep(d.delay)
		_ = d.Transport.Send(context.Background(), env)
	}()
	return nil
}

func TestController_NoLossBetweenJoinAndConfirm(t *testing.T) {
	h := newHarness(t)
	dial := func(ctx context.Context, r, identity string) (realtime.Transport, error) {
		tr, err := h.dial(ctx, r, identity)
		if err != nil {
			return nil, err
		}
		return &delayedJoinTransport{Transport: tr, delay: 100 * time.Millisecond}, nil
	}

	c := NewController(h.store, dial, room)
	defer c.Close()
	require.NoError(t, c.SetIdentity(context.Background(), "alice@x.com"))

	_, err := h.uc.Send(context.Background(), "bob@y.com", "lost?")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.State() == StateSubscribed }, waitFor, tick)
	require.Eventually(t, func() bool { return len(c.Rendered()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"lost?"}, contents(c))
}

// joinRejectingTransport dials fine but cannot write the join
type joinRejectingTransport struct {
	realtime.Transport
}

func (j *joinRejectingTransport) Send(ctx context.Context, env domain.Envelope) error {
	if env.Event == domain.EventJoin {
		return errors.New("socket write failed")
	}
	return j.Transport.Send(ctx, env)
}

func TestController_JoinSendFailureReportedOnce(t *testing.T) {
	h := newHarness(t)
	dial := func(ctx context.Context, r, identity string) (realtime.Transport, error) {
		tr, err := h.dial(ctx, r, identity)
		if err != nil {
			return nil, err
		}
		return &joinRejectingTransport{Transport: tr}, nil
	}

	var notified []error
	var mu sync.Mutex
	c := NewController(h.store, dial, room, WithNotifier(func(err error) {
		mu.Lock()
		notified = append(notified, err)
		mu.Unlock()
	}))
	defer c.Close()

	err := c.SetIdentity(context.Background(), "alice@x.com")
	assert.ErrorContains(t, err, "socket write failed")
	assert.Equal(t, StateClosed, c.State())

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1)
	assert.ErrorIs(t, notified[0], realtime.ErrConnection)
}

func TestController_ReconnectKeepsOnePresenceEntry(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t, "alice@x.com")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Reconnect(ctx))
	}
	require.Eventually(t, func() bool { return c.State() == StateSubscribed }, waitFor, tick)
	require.Eventually(t, func() bool { return len(h.hub.Snapshot()["alice@x.com"]) == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return c.OnlineCount() == 1 }, waitFor, tick)
	assert.Equal(t, 1, h.hub.Online())

	_, err := h.uc.Send(ctx, "bob@y.com", "x")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(c.Rendered()) == 1 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"x"}, contents(c), "one channel delivers each message once")
}

func TestController_ReconnectAfterErrored(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var transports []realtime.Transport
	dial := func(ctx context.Context, r, identity string) (realtime.Transport, error) {
		tr, err := h.dial(ctx, r, identity)
		if err == nil {
			mu.Lock()
			transports = append(transports, tr)
			mu.Unlock()
		}
		return tr, err
	}

	var notified []error
	c := NewController(h.store, dial, room, WithNotifier(func(err error) {
		mu.Lock()
		notified = append(notified, err)
		mu.Unlock()
	}))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.SetIdentity(ctx, "alice@x.com"))
	require.Eventually(t, func() bool { return c.State() == StateSubscribed }, waitFor, tick)

	mu.Lock()
	dropped := transports[0]
	mu.Unlock()
	require.NoError(t, dropped.Close())
	require.Eventually(t, func() bool { return c.State() == StateClosed }, waitFor, tick)

	require.NoError(t, c.Reconnect(ctx))
	require.Eventually(t, func() bool { return c.State() == StateSubscribed }, waitFor, tick)
	require.Eventually(t, func() bool { return c.OnlineCount() == 1 }, waitFor, tick)

	_, err := h.uc.Send(ctx, "bob@y.com", "back")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(c.Rendered()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"back"}, contents(c))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, transports, 2)
	require.Len(t, notified, 1)
	assert.ErrorIs(t, notified[0], realtime.ErrConnection)
}
