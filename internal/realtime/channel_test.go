package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"book_story_service/internal/chat/app"
	"book_story_service/internal/chat/domain"
	"book_story_service/internal/realtime"
	testtool "book_story_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const room = "online-users"

type recorder struct {
	mu       sync.Mutex
	statuses []realtime.Status
	messages []string
	counts   []int
}

func (r *recorder) status(s realtime.Status, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) message(m domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m.Content)
}

func (r *recorder) presence(s realtime.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, len(s.Keys))
}

func (r *recorder) lastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return -1
	}
	return r.counts[len(r.counts)-1]
}

func (r *recorder) snapshotMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func open(t *testing.T, hub *app.Hub, identity string) (*realtime.Channel, *recorder) {
	t.Helper()
	ch, err := realtime.Open(context.Background(), testtool.LocalDialer(hub), room, identity)
	require.NoError(t, err)
	rec := &recorder{}
	ch.OnMessageInserted(rec.message)
	ch.OnPresenceSync(rec.presence)
	return ch, rec
}

func subscribeAndTrack(t *testing.T, ch *realtime.Channel, rec *recorder) {
	t.Helper()
	require.NoError(t, ch.Subscribe(context.Background(), rec.status))
	require.Eventually(t, func() bool { return ch.Status() == realtime.StatusSubscribed }, time.Second, 5*time.Millisecond)
	require.NoError(t, ch.Track(context.Background(), domain.PresenceMeta{OnlineAt: time.Now()}))
}

func TestOpen_ConnectionFailure(t *testing.T) {
	_, err := realtime.Open(context.Background(), testtool.FailingDialer(errors.New("refused")), room, "alice@x.com")
	assert.ErrorIs(t, err, realtime.ErrConnection)
}

func TestChannel_SubscribeTrackAndPresence(t *testing.T) {
	hub := app.NewHub(room, 32)

	alice, aliceRec := open(t, hub, "alice@x.com")
	defer alice.Close()
	assert.Equal(t, realtime.StatusConnecting, alice.Status())
	assert.ErrorIs(t, alice.Track(context.Background(), domain.PresenceMeta{}), realtime.ErrNotSubscribed)

	subscribeAndTrack(t, alice, aliceRec)
	assert.Eventually(t, func() bool { return aliceRec.lastCount() == 1 }, time.Second, 5*time.Millisecond)

	bob, bobRec := open(t, hub, "bob@y.com")
	subscribeAndTrack(t, bob, bobRec)
	assert.Eventually(t, func() bool { return aliceRec.lastCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return bobRec.lastCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"alice@x.com", "bob@y.com"}, bob.Presence().State().Keys())

	require.NoError(t, bob.Close())
	assert.Eventually(t, func() bool { return aliceRec.lastCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, alice.Subscribe(context.Background(), nil), realtime.ErrAlreadySubscribed)
	aliceRec.mu.Lock()
	assert.Equal(t, []realtime.Status{realtime.StatusSubscribed}, aliceRec.statuses)
	aliceRec.mu.Unlock()
}

func TestChannel_MessagesInCommitOrder(t *testing.T) {
	hub := app.NewHub(room, 256)

	alice, aliceRec := open(t, hub, "alice@x.com")
	defer alice.Close()
	bob, bobRec := open(t, hub, "bob@y.com")
	defer bob.Close()
	subscribeAndTrack(t, alice, aliceRec)
	subscribeAndTrack(t, bob, bobRec)

	want := []string{"1", "2", "3", "4", "5"}
	for _, c := range want {
		hub.Broadcast(domain.ChatMessage{ID: c, Content: c})
	}

	for _, rec := range []*recorder{aliceRec, bobRec} {
		assert.Eventually(t, func() bool { return len(rec.snapshotMessages()) == len(want) }, time.Second, 5*time.Millisecond)
		assert.Equal(t, want, rec.snapshotMessages())
	}
}

func TestChannel_CloseIsIdempotentAndSilent(t *testing.T) {
	hub := app.NewHub(room, 32)

	ch, rec := open(t, hub, "alice@x.com")
	subscribeAndTrack(t, ch, rec)
	assert.Eventually(t, func() bool { return hub.Online() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Equal(t, realtime.StatusClosed, ch.Status())
	assert.Equal(t, 0, hub.Online())

	before := len(rec.snapshotMessages())
	hub.Broadcast(domain.ChatMessage{ID: "late", Content: "late"})
	ch.OnMessageInserted(func(domain.ChatMessage) { t.Error("handler registered after close ran") })
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.snapshotMessages(), before)

	assert.ErrorIs(t, ch.Subscribe(context.Background(), nil), realtime.ErrChannelClosed)
	assert.ErrorIs(t, ch.Track(context.Background(), domain.PresenceMeta{}), realtime.ErrChannelClosed)
}

func TestChannel_JoinRefused(t *testing.T) {
	hub := app.NewHub("another-room", 32)

	ch, err := realtime.Open(context.Background(), testtool.LocalDialer(hub), room, "alice@x.com")
	require.NoError(t, err)
	defer ch.Close()

	errs := make(chan error, 1)
	require.NoError(t, ch.Subscribe(context.Background(), func(s realtime.Status, err error) {
		if s == realtime.StatusErrored {
			errs <- err
		}
	}))

	select {
	case err := <-errs:
		assert.EqualError(t, err, app.ErrUnknownRoom.Error())
	case <-time.After(time.Second):
		t.Fatal("no errored status")
	}
	assert.Equal(t, realtime.StatusErrored, ch.Status())
}

func TestChannel_DroppedTransportErrors(t *testing.T) {
	hub := app.NewHub(room, 2)

	ch, err := realtime.Open(context.Background(), testtool.LocalDialer(hub), room, "alice@x.com")
	require.NoError(t, err)
	defer ch.Close()

	errs := make(chan error, 2)
	block := make(chan struct{})
	ch.OnMessageInserted(func(domain.ChatMessage) { <-block })
	require.NoError(t, ch.Subscribe(context.Background(), func(s realtime.Status, err error) {
		if s == realtime.StatusErrored {
			errs <- err
		}
	}))
	require.Eventually(t, func() bool { return ch.Status() == realtime.StatusSubscribed }, time.Second, 5*time.Millisecond)

	// the handler stalls dispatch, so the hub queue overflows and the peer is dropped
	for i := 0; i < 300; i++ {
		hub.Broadcast(domain.ChatMessage{ID: "m", Content: "m"})
	}
	close(block)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, realtime.ErrConnection)
	case <-time.After(2 * time.Second):
		t.Fatal("no errored status after drop")
	}
}
