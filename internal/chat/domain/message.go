package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength upper bound of a message body, in runes
const MaxContentLength = 2000

var (
	// ErrEmptyMessage content is empty after trimming
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLong content exceeds MaxContentLength
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxContentLength)
	// ErrMissingSender message has no sender identity
	ErrMissingSender = errors.New("message has no sender")
)

// ChatMessage 表示一則聊天訊息. Messages are never updated or deleted.
type ChatMessage struct {
	ID             string    `bson:"_id" json:"id"`
	Content        string    `bson:"content" json:"content"`
	SenderIdentity string    `bson:"user_email" json:"user_email"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// NormalizeContent trims content and checks the length rules
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// Key identifies a message for de-duplication.
// Messages written before ids existed fall back to sender + timestamp.
func (m ChatMessage) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.SenderIdentity + "|" + m.CreatedAt.UTC().Format(time.RFC3339Nano)
}
