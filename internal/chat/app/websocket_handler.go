package app

import (
	"context"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/pkg/logger"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
)

// wsConn the part of *websocket.Conn the handler uses
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// ChatWebsocketHandler attaches websocket connections to the hub
type ChatWebsocketHandler struct {
	hub          *Hub
	pingInterval time.Duration
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(hub *Hub) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		hub:          hub,
		pingInterval: defaultPingInterval,
	}
}

// HandleConnection 是 WebSocket 連線的進入點; the identity comes from the JWT middleware
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	identity, _ := conn.Locals(middlewares.TokenEmail).(string)
	h.serve(ctx, identity, conn)
}

func (h *ChatWebsocketHandler) serve(ctx context.Context, identity string, conn wsConn) {
	peer := h.hub.Connect(identity)
	logger.Log.Info("websocket open", zap.String("identity", identity), zap.String("ref", peer.Ref))

	writerDone := make(chan struct{})
	go h.writeLoop(conn, peer, writerDone)

	defer func() {
		h.hub.Disconnect(peer)
		<-writerDone
		conn.Close()
		logger.Log.Info("websocket close", zap.String("identity", identity), zap.String("ref", peer.Ref))
	}()

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("Received PONG", zap.String("ref", peer.Ref))
		return nil
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("Connection closed", zap.String("ref", peer.Ref))
			} else {
				select {
				case <-peer.Done():
				case <-ctx.Done():
				default:
					logger.Log.Warn("websocket read error", zap.String("ref", peer.Ref), zap.Error(err))
				}
			}
			return
		}
		h.execWebsocketAction(peer, mt, message)
	}
}

// writeLoop is the only writer of conn; it closes conn once the peer is dropped
func (h *ChatWebsocketHandler) writeLoop(conn wsConn, peer *Peer, done chan<- struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case env := <-peer.Outbound():
			data, err := json.Marshal(env)
			if err != nil {
				logger.Log.Error("encode envelope", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Log.Warn("websocket write error", zap.String("ref", peer.Ref), zap.Error(err))
				h.hub.Disconnect(peer)
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				h.hub.Disconnect(peer)
				conn.Close()
				return
			}
		case <-peer.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
			return
		}
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(peer *Peer, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(peer, msg)
	default:
		h.sendError(peer, "", "unsupported frame type")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(peer *Peer, msg []byte) {
	var req domain.Envelope
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(peer, "", "invalid envelope")
		return
	}

	h.hub.Dispatch(peer, req)
}

func (h *ChatWebsocketHandler) sendError(peer *Peer, ref domain.Event, msg string) {
	h.hub.Reply(peer, domain.Envelope{Event: domain.EventError, Room: h.hub.Room(), Ref: string(ref), Error: msg})
}
