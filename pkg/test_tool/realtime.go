package testtool

import (
	"context"
	"errors"
	"sync"

	"book_story_service/internal/chat/app"
	"book_story_service/internal/chat/domain"
	"book_story_service/internal/realtime"
)

// ErrPeerDropped the hub released the peer
var ErrPeerDropped = errors.New("peer dropped by hub")

// LocalDialer connects realtime channels straight to an in-process hub
func LocalDialer(hub *app.Hub) realtime.Dialer {
	return func(ctx context.Context, room, identity string) (realtime.Transport, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := &localTransport{
			hub:    hub,
			peer:   hub.Connect(identity),
			recv:   make(chan domain.Envelope, 256),
			closed: make(chan struct{}),
		}
		go t.pump()
		return t, nil
	}
}

// FailingDialer always fails with err
func FailingDialer(err error) realtime.Dialer {
	return func(context.Context, string, string) (realtime.Transport, error) {
		return nil, err
	}
}

type localTransport struct {
	hub  *app.Hub
	peer *app.Peer
	recv chan domain.Envelope

	closeOnce sync.Once
	closed    chan struct{}

	mu  sync.Mutex
	err error
}

func (t *localTransport) pump() {
	defer close(t.recv)
	for {
		select {
		case env := <-t.peer.Outbound():
			select {
			case t.recv <- env:
			case <-t.closed:
				return
			}
		case <-t.peer.Done():
			select {
			case <-t.closed:
			default:
				t.mu.Lock()
				t.err = ErrPeerDropped
				t.mu.Unlock()
			}
			return
		case <-t.closed:
			return
		}
	}
}

func (t *localTransport) Send(ctx context.Context, env domain.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.closed:
		return realtime.ErrTransportClosed
	case <-t.peer.Done():
		return ErrPeerDropped
	default:
	}
	t.hub.Dispatch(t.peer, env)
	return nil
}

func (t *localTransport) Receive() <-chan domain.Envelope {
	return t.recv
}

func (t *localTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *localTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.hub.Disconnect(t.peer)
	})
	return nil
}
