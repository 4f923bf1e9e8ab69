package repository

import (
	"context"
	"fmt"

	"book_story_service/internal/chat/domain"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const messagePrefix = "msg:"

type badgerMessageRepository struct {
	db *badger.DB
}

// NewBadgerMessageRepository create a MessageRepository on an embedded badger store.
// Keys are "msg:{created_at unix nano, 19 digits}:{id}" so a prefix scan is chronological.
func NewBadgerMessageRepository(db *badger.DB) MessageRepository {
	return &badgerMessageRepository{db: db}
}

func messageKey(msg *domain.ChatMessage) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, msg.CreatedAt.UnixNano(), msg.ID))
}

func (r *badgerMessageRepository) InsertMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := messageKey(msg)
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrDuplicateMessage
		}
		return txn.Set(key, data)
	})
}

func (r *badgerMessageRepository) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	messages := []domain.ChatMessage{}
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var msg domain.ChatMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			})
			if err != nil {
				return err
			}
			msg.CreatedAt = msg.CreatedAt.UTC()
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
