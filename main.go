package main

import (
	"context"

	chatrouter "book_story_service/internal/chat/router"
	memberrouter "book_story_service/internal/member/router"
	reviewrouter "book_story_service/internal/review/router"

	"github.com/gofiber/fiber/v2"
)

// 因拆分微服務。此程式用於init swagger
// swag init output ./docs
func main() {
	chatrouter.RegisterRoutes(context.Background(), fiber.New(), "chat_service", nil, nil)
	reviewrouter.RegisterRoutes(fiber.New(), "review_service", nil)
	memberrouter.RegisterRoutes(fiber.New(), "member_service", nil)
}
