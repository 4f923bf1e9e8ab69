package app

import (
	"errors"

	"book_story_service/internal/api/comm"
	"book_story_service/internal/chat/domain"
	"book_story_service/pkg/logger"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageHandler REST surface of the message store
type MessageHandler struct {
	uc *MessageUseCase
}

// NewMessageHandler create MessageHandler
func NewMessageHandler(uc *MessageUseCase) *MessageHandler {
	return &MessageHandler{uc: uc}
}

// SendMessageRequest body of POST /messages
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ListMessages every message, oldest first
// @Summary List chat messages
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ChatMessage
// @Failure 500 {object} comm.ErrorResponse
// @Router /messages [get]
func (h *MessageHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.uc.History(c.UserContext())
	if err != nil {
		logger.Log.Error("list messages", zap.Error(err))
		return comm.Fail(c, fiber.StatusInternalServerError, "failed to load messages")
	}
	return c.JSON(messages)
}

// SendMessage appends a message from the signed in member
// @Summary Send a chat message
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendMessageRequest true "message"
// @Success 201 {object} domain.ChatMessage
// @Failure 400 {object} comm.ErrorResponse
// @Failure 500 {object} comm.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	email, ok := middlewares.Email(c)
	if !ok {
		return comm.Fail(c, fiber.StatusUnauthorized, "missing identity")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid request")
	}

	msg, err := h.uc.Send(c.UserContext(), email, req.Content)
	switch {
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrMessageTooLong):
		return comm.Fail(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		logger.Log.Error("send message", zap.String("email", email), zap.Error(err))
		return comm.Fail(c, fiber.StatusInternalServerError, "failed to store message")
	}

	logger.Log.Debug("message stored", zap.String("id", msg.ID), zap.String("email", email))
	return c.Status(fiber.StatusCreated).JSON(msg)
}
