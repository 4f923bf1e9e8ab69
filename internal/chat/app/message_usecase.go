package app

import (
	"context"
	"sync"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/internal/chat/repository"
	"book_story_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// timestampResolution matches the millisecond precision of the mongo date type
const timestampResolution = time.Millisecond

// MessageUseCase 負責處理聊天訊息: append to the store, then announce on the change feed
type MessageUseCase struct {
	room    string
	msgRepo repository.MessageRepository
	feed    repository.ChangeFeed
	now     func() time.Time

	// mu serialises insert+publish so feed order equals commit order
	mu   sync.Mutex
	last time.Time
}

// NewMessageUseCase init message use case
func NewMessageUseCase(room string, msgRepo repository.MessageRepository, feed repository.ChangeFeed) *MessageUseCase {
	return &MessageUseCase{
		room:    room,
		msgRepo: msgRepo,
		feed:    feed,
		now:     time.Now,
	}
}

// Send validates content, stores the message with a server assigned id and created_at
// and publishes it. A publish failure is logged; the message stays committed.
func (uc *MessageUseCase) Send(ctx context.Context, sender, content string) (*domain.ChatMessage, error) {
	if sender == "" {
		return nil, domain.ErrMissingSender
	}
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	msg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		Content:        content,
		SenderIdentity: sender,
		CreatedAt:      uc.nextTimestampLocked(),
	}
	if err := uc.msgRepo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	uc.last = msg.CreatedAt

	if err := uc.feed.Publish(ctx, uc.room, *msg); err != nil {
		logger.Log.Error("publish message failed",
			zap.String("room", uc.room),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
	return msg, nil
}

// History every stored message, oldest first
func (uc *MessageUseCase) History(ctx context.Context) ([]domain.ChatMessage, error) {
	return uc.msgRepo.ListMessages(ctx)
}

// nextTimestampLocked is strictly greater than the previous one, so created_at order is commit order
func (uc *MessageUseCase) nextTimestampLocked() time.Time {
	ts := uc.now().UTC().Truncate(timestampResolution)
	if !ts.After(uc.last) {
		ts = uc.last.Add(timestampResolution)
	}
	return ts
}
