package comm

import (
	"fmt"
	"strconv"

	"book_story_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConnectCheck returns a handler answering "<service> start!"
// @Summary Check service status
// @Description Returns a simple confirmation message
// @Tags Shared
// @Success 200 {string} string "service start!"
// @Router / [get]
func ConnectCheck(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString(service + " start!")
	}
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging for the service
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "Service debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		statusStr := c.Query("status")
		logger.Log.Info("debug", zap.String("status", statusStr))
		status, err := strconv.ParseBool(statusStr)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		logger.Log.SetDebugMode(status)
		return c.SendString(fmt.Sprintf("service[%s]: debug mode is : %t", service, status))
	}
}

// ErrorResponse error body of every json api
type ErrorResponse struct {
	Error string `json:"error"`
}

// Fail writes an ErrorResponse with status
func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}
