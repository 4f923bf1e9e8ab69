package router

import (
	"context"

	"book_story_service/internal/api/comm"
	"book_story_service/internal/chat/app"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相关的路由
// @title Book Story Chat API
// @version 1.0
// @description Realtime chat of the reading log
// @host localhost:8082
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func RegisterRoutes(ctx context.Context, r *fiber.App, service string, chatWebsocket *app.ChatWebsocketHandler, messages *app.MessageHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", comm.ConnectCheck(service))
	r.Post("/debug", comm.DebugLogFlag(service))

	jwt := middlewares.JWTMiddleware()
	r.Get("/messages", jwt, messages.ListMessages)
	r.Post("/messages", jwt, messages.SendMessage)

	r.Get("/ws", jwt, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(ctx, c)
	}))
}
