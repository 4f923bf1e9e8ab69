package router

import (
	"book_story_service/internal/api/comm"
	"book_story_service/internal/review/app"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterRoutes 注册书评相关的路由
// @title Book Story Review API
// @version 1.0
// @description Reading log reviews and book search
// @host localhost:8081
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func RegisterRoutes(r *fiber.App, service string, reviews *app.ReviewHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", comm.ConnectCheck(service))
	r.Post("/debug", comm.DebugLogFlag(service))

	r.Get("/search", reviews.SearchBooks)

	g := r.Group("/reviews", middlewares.JWTMiddleware())
	g.Get("/", reviews.ListReviews)
	g.Post("/", reviews.CreateReview)
	g.Get("/:id", reviews.GetReview)
	g.Put("/:id", reviews.UpdateReview)
	g.Patch("/:id", reviews.UpdateReview)
	g.Delete("/:id", reviews.DeleteReview)
	g.Post("/:id/cover", reviews.UploadCover)
}
