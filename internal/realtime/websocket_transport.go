package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/pkg/logger"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	writeWait      = 10 * time.Second
	receiveBacklog = 256
)

// WebsocketDialer dials wsURL (e.g. ws://localhost:8082/ws) passing the session token.
// token is read on every dial so a refreshed session is picked up.
func WebsocketDialer(wsURL string, token func() string) Dialer {
	return func(ctx context.Context, room, identity string) (Transport, error) {
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnection, err)
		}
		q := u.Query()
		q.Set("auth", token())
		u.RawQuery = q.Encode()

		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("%w: unauthorized", ErrConnection)
			}
			return nil, fmt.Errorf("%w: %v", ErrConnection, err)
		}
		logger.Log.Debug("realtime dialed", zap.String("room", room), zap.String("identity", identity))
		return newWebsocketTransport(conn), nil
	}
}

type websocketTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	recv    chan domain.Envelope

	closeOnce sync.Once
	closed    chan struct{}

	errMu sync.Mutex
	err   error
}

func newWebsocketTransport(conn *websocket.Conn) *websocketTransport {
	t := &websocketTransport{
		conn:   conn,
		recv:   make(chan domain.Envelope, receiveBacklog),
		closed: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *websocketTransport) readLoop() {
	defer close(t.recv)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.closed:
			default:
				t.setErr(err)
			}
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Log.Warn("drop undecodable envelope", zap.Error(err))
			continue
		}
		select {
		case t.recv <- env:
		case <-t.closed:
			return
		}
	}
}

func (t *websocketTransport) Send(ctx context.Context, env domain.Envelope) error {
	select {
	case <-t.closed:
		return ErrTransportClosed
	default:
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *websocketTransport) Receive() <-chan domain.Envelope {
	return t.recv
}

func (t *websocketTransport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}

func (t *websocketTransport) setErr(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

func (t *websocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
