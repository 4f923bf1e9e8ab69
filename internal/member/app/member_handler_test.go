package app

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"book_story_service/internal/member/domain"
	"book_story_service/pkg/logger"
	"book_story_service/pkg/middlewares"
	token "book_story_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMemberUseCase Mock MemberUseCase
type MockMemberUseCase struct {
	mock.Mock
}

func (m *MockMemberUseCase) RequestLoginLink(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *MockMemberUseCase) VerifyLoginLink(ctx context.Context, email, secret string) (string, error) {
	args := m.Called(email, secret)
	return args.String(0), args.Error(1)
}

func (m *MockMemberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(param)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberUseCase) Logout(ctx context.Context, t string) error {
	return m.Called(t).Error(0)
}

func (m *MockMemberUseCase) ForceLogout(ctx context.Context, memberID string) error {
	return m.Called(memberID).Error(0)
}

func (m *MockMemberUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	args := m.Called(t)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberUseCase) ReconnectSession(ctx context.Context, t string) error {
	return m.Called(t).Error(0)
}

func newHandlerApp(uc MemberUseCase) *fiber.App {
	logger.SetNewNop()
	h := NewMemberHandler(uc)
	a := fiber.New()
	a.Post("/member/login-link", h.RequestLoginLink)
	a.Get("/member/verify", h.Verify)
	a.Post("/member/logout", middlewares.JWTMiddleware(), h.Logout)
	a.Put("/member/session", middlewares.JWTMiddleware(), h.Refresh)
	return a
}

func readBody(t *testing.T, r io.Reader) string {
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestMemberHandler_RequestLoginLink(t *testing.T) {
	uc := new(MockMemberUseCase)
	a := newHandlerApp(uc)

	post := func(body string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/member/login-link", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := a.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	uc.On("RequestLoginLink", "alice@x.com").Return(nil).Once()
	assert.Equal(t, fiber.StatusAccepted, post(`{"email":"alice@x.com"}`))

	uc.On("RequestLoginLink", "nope").Return(domain.ErrInvalidEmail).Once()
	assert.Equal(t, fiber.StatusBadRequest, post(`{"email":"nope"}`))

	uc.On("RequestLoginLink", "ban@x.com").Return(domain.ErrMemberBlocked).Once()
	assert.Equal(t, fiber.StatusForbidden, post(`{"email":"ban@x.com"}`))

	uc.On("RequestLoginLink", "down@x.com").Return(errors.New("redis down")).Once()
	assert.Equal(t, fiber.StatusInternalServerError, post(`{"email":"down@x.com"}`))

	assert.Equal(t, fiber.StatusBadRequest, post(`{`))
	uc.AssertExpectations(t)
}

func TestMemberHandler_Verify(t *testing.T) {
	uc := new(MockMemberUseCase)
	a := newHandlerApp(uc)

	uc.On("VerifyLoginLink", "alice@x.com", "s1").Return("jwt-1", nil).Once()
	resp, err := a.Test(httptest.NewRequest(fiber.MethodGet, "/member/verify?email=alice%40x.com&token=s1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"token":"jwt-1"}`, readBody(t, resp.Body))
	assert.Contains(t, resp.Header.Get(fiber.HeaderSetCookie), middlewares.CookieToken+"=jwt-1")

	uc.On("VerifyLoginLink", "alice@x.com", "s1").Return("", domain.ErrInvalidLink).Once()
	resp, err = a.Test(httptest.NewRequest(fiber.MethodGet, "/member/verify?email=alice%40x.com&token=s1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	uc.AssertExpectations(t)
}

func TestMemberHandler_Logout(t *testing.T) {
	uc := new(MockMemberUseCase)
	a := newHandlerApp(uc)

	resp, err := a.Test(httptest.NewRequest(fiber.MethodPost, "/member/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	tok, err := token.GenerateJWT("m-1", "alice@x.com", string(token.RoleMember), "test")
	require.NoError(t, err)
	uc.On("Logout", tok).Return(nil).Once()

	req := httptest.NewRequest(fiber.MethodPost, "/member/logout", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err = a.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	uc.On("ReconnectSession", tok).Return(domain.ErrSessionExpired).Once()
	req = httptest.NewRequest(fiber.MethodPut, "/member/session", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err = a.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	uc.AssertExpectations(t)
}
