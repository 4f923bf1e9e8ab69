package app

import (
	"errors"

	"book_story_service/internal/api/comm"
	"book_story_service/internal/member/domain"
	"book_story_service/pkg/logger"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler member http api
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler create MemberHandler
func NewMemberHandler(uc MemberUseCase) *MemberHandler {
	return &MemberHandler{Usecase: uc}
}

// LoginLinkRequest body of POST /member/login-link
type LoginLinkRequest struct {
	Email string `json:"email"`
}

// LoginLinkResponse acknowledges a queued sign-in mail
type LoginLinkResponse struct {
	Message string `json:"message"`
}

// VerifyResponse carries the session token
type VerifyResponse struct {
	Token string `json:"token"`
}

// RequestLoginLink 寄送登入連結
// @Summary Request a sign-in link
// @Tags Member
// @Accept json
// @Produce json
// @Param request body LoginLinkRequest true "email"
// @Success 202 {object} LoginLinkResponse
// @Failure 400 {object} comm.ErrorResponse
// @Failure 403 {object} comm.ErrorResponse
// @Failure 500 {object} comm.ErrorResponse
// @Router /member/login-link [post]
func (h *MemberHandler) RequestLoginLink(c *fiber.Ctx) error {
	var req LoginLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid request")
	}

	err := h.Usecase.RequestLoginLink(c.UserContext(), req.Email)
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		return comm.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMemberBlocked):
		return comm.Fail(c, fiber.StatusForbidden, err.Error())
	case err != nil:
		logger.Log.Error("RequestLoginLink Err", zap.String("email", req.Email), zap.Error(err))
		return comm.Fail(c, fiber.StatusInternalServerError, "failed to send sign-in link")
	}

	return c.Status(fiber.StatusAccepted).JSON(LoginLinkResponse{Message: "check your email for the sign-in link"})
}

// Verify 驗證登入連結並發出 token
// @Summary Verify a sign-in link
// @Tags Member
// @Produce json
// @Param email query string true "email"
// @Param token query string true "one-time token"
// @Success 200 {object} VerifyResponse
// @Failure 401 {object} comm.ErrorResponse
// @Failure 500 {object} comm.ErrorResponse
// @Router /member/verify [get]
func (h *MemberHandler) Verify(c *fiber.Ctx) error {
	email := c.Query("email")
	t, err := h.Usecase.VerifyLoginLink(c.UserContext(), email, c.Query("token"))
	switch {
	case errors.Is(err, domain.ErrInvalidLink), errors.Is(err, domain.ErrMemberBlocked):
		return comm.Fail(c, fiber.StatusUnauthorized, err.Error())
	case err != nil:
		logger.Log.Error("Verify Err", zap.String("email", email), zap.Error(err))
		return comm.Fail(c, fiber.StatusInternalServerError, "failed to sign in")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    t,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(VerifyResponse{Token: t})
}

// Logout 登出
// @Summary Sign out
// @Tags Member
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} comm.ErrorResponse
// @Router /member/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	raw, _ := c.Locals(middlewares.TokenRaw).(string)
	if err := h.Usecase.Logout(c.UserContext(), raw); err != nil {
		logger.Log.Error("Logout Err", zap.Error(err))
		return comm.Fail(c, fiber.StatusUnauthorized, "invalid session")
	}

	c.ClearCookie(middlewares.CookieToken)
	return c.SendStatus(fiber.StatusNoContent)
}

// Refresh extends the current session
// @Summary Keep the session alive
// @Tags Member
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} comm.ErrorResponse
// @Router /member/session [put]
func (h *MemberHandler) Refresh(c *fiber.Ctx) error {
	raw, _ := c.Locals(middlewares.TokenRaw).(string)
	if err := h.Usecase.ReconnectSession(c.UserContext(), raw); err != nil {
		if !errors.Is(err, domain.ErrSessionExpired) {
			logger.Log.Error("Refresh Err", zap.Error(err))
		}
		return comm.Fail(c, fiber.StatusUnauthorized, domain.ErrSessionExpired.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session reports whether the current session is still alive
// @Summary Session state
// @Tags Member
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /member/session [get]
func (h *MemberHandler) Session(c *fiber.Ctx) error {
	raw, _ := c.Locals(middlewares.TokenRaw).(string)
	expired, err := h.Usecase.CheckSessionTimeout(c.UserContext(), raw)
	if err != nil {
		logger.Log.Debug("session check", zap.Error(err))
	}
	return c.JSON(fiber.Map{"expired": expired})
}
