package router

import (
	"book_story_service/internal/api/comm"
	"book_story_service/internal/member/app"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册会员相关的路由
func RegisterRoutes(r *fiber.App, service string, member *app.MemberHandler) {
	r.Get("/", comm.ConnectCheck(service))
	r.Post("/debug", comm.DebugLogFlag(service))

	g := r.Group("/member")
	g.Post("/login-link", member.RequestLoginLink)
	g.Get("/verify", member.Verify)

	jwt := middlewares.JWTMiddleware()
	g.Post("/logout", jwt, member.Logout)
	g.Get("/session", jwt, member.Session)
	g.Put("/session", jwt, member.Refresh)
}
