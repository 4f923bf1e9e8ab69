package app

import (
	"context"

	"book_story_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// InsertMessage mock insert message
func (m *MockMessageRepository) InsertMessage(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// ListMessages mock list messages
func (m *MockMessageRepository) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockChangeFeed Mock ChangeFeed
type MockChangeFeed struct {
	mock.Mock
}

// Publish mock publish
func (m *MockChangeFeed) Publish(ctx context.Context, room string, msg domain.ChatMessage) error {
	args := m.Called(ctx, room, msg)
	return args.Error(0)
}

// Subscribe mock subscribe
func (m *MockChangeFeed) Subscribe(ctx context.Context, room string, handler func(domain.ChatMessage)) error {
	args := m.Called(ctx, room, handler)
	return args.Error(0)
}
