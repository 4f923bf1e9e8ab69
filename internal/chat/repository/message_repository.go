package repository

import (
	"context"
	"errors"

	"book_story_service/internal/chat/domain"
	"book_story_service/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollection = "chat_messages"

// ErrDuplicateMessage a message with the same id already exists
var ErrDuplicateMessage = errors.New("message already exists")

// MessageRepository append-only message log
type MessageRepository interface {
	// InsertMessage stores a message that already carries its id and created_at
	InsertMessage(ctx context.Context, msg *domain.ChatMessage) error
	// ListMessages returns every message ordered by created_at ascending
	ListMessages(ctx context.Context) ([]domain.ChatMessage, error)
}

type chatMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoChatMessageRepository create a MessageRepository on the chat_messages collection
func NewMongoChatMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection(messageCollection),
	}
}

// EnsureIndexes creates the created_at index used by ListMessages
func EnsureIndexes(ctx context.Context, db *database.MongoDB) error {
	return db.EnsureIndex(ctx, messageCollection, bson.D{{Key: "created_at", Value: 1}}, false)
}

func (r *chatMessageRepository) InsertMessage(ctx context.Context, msg *domain.ChatMessage) error {
	_, err := r.coll.InsertOne(ctx, msg)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateMessage
	}
	return err
}

func (r *chatMessageRepository) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	messages := []domain.ChatMessage{}
	for cur.Next(ctx) {
		var msg domain.ChatMessage
		if err := cur.Decode(&msg); err != nil {
			return nil, err
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		messages = append(messages, msg)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
