package chatview

import (
	"context"
	"fmt"
	"time"

	"book_story_service/internal/api/comm"
	"book_story_service/internal/chat/app"
	"book_story_service/internal/chat/domain"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultRequestTimeout = 10 * time.Second

// HTTPStore MessageStore backed by the chat_service REST api.
// The sender is taken from the session token by the server.
type HTTPStore struct {
	baseURL string
	token   func() string
}

// NewHTTPStore create HTTPStore for baseURL (e.g. http://localhost:8082)
func NewHTTPStore(baseURL string, token func() string) *HTTPStore {
	return &HTTPStore{baseURL: baseURL, token: token}
}

// Insert POST /messages
func (s *HTTPStore) Insert(ctx context.Context, content, _ string) error {
	a := fiber.Post(s.baseURL + "/messages")
	a.Set(fiber.HeaderAuthorization, "Bearer "+s.token())
	a.JSON(app.SendMessageRequest{Content: content})
	a.Timeout(timeout(ctx))

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post message: %w", errs[0])
	}
	if code != fiber.StatusCreated {
		return apiError(code, body)
	}
	return nil
}

// ListAll GET /messages
func (s *HTTPStore) ListAll(ctx context.Context) ([]domain.ChatMessage, error) {
	a := fiber.Get(s.baseURL + "/messages")
	a.Set(fiber.HeaderAuthorization, "Bearer "+s.token())
	a.Timeout(timeout(ctx))

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("list messages: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return nil, apiError(code, body)
	}

	var messages []domain.ChatMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

func timeout(ctx context.Context) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		return time.Until(d)
	}
	return defaultRequestTimeout
}

func apiError(code int, body []byte) error {
	var resp comm.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return fmt.Errorf("chat api %d: %s", code, resp.Error)
	}
	return fmt.Errorf("chat api %d", code)
}

// UseCaseStore MessageStore calling the message use case in process
type UseCaseStore struct {
	uc *app.MessageUseCase
}

// NewUseCaseStore create UseCaseStore
func NewUseCaseStore(uc *app.MessageUseCase) *UseCaseStore {
	return &UseCaseStore{uc: uc}
}

// Insert sends content as sender
func (s *UseCaseStore) Insert(ctx context.Context, content, sender string) error {
	_, err := s.uc.Send(ctx, sender, content)
	return err
}

// ListAll full history
func (s *UseCaseStore) ListAll(ctx context.Context) ([]domain.ChatMessage, error) {
	return s.uc.History(ctx)
}
