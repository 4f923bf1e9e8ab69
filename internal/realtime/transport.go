package realtime

import (
	"context"
	"errors"

	"book_story_service/internal/chat/domain"
)

var (
	// ErrConnection the realtime server could not be reached
	ErrConnection = errors.New("realtime connection failed")
	// ErrTransportClosed send after the transport has been closed
	ErrTransportClosed = errors.New("transport closed")
)

// Transport a bidirectional envelope stream to the realtime server
type Transport interface {
	Send(ctx context.Context, env domain.Envelope) error
	// Receive is closed when the transport ends; Err then reports why
	Receive() <-chan domain.Envelope
	Err() error
	Close() error
}

// Dialer opens a transport for identity on room
type Dialer func(ctx context.Context, room, identity string) (Transport, error)
