package app

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"book_story_service/internal/review/domain"
	"book_story_service/pkg/middlewares"
	token "book_story_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReviewApp(t *testing.T) (*fiber.App, reviewMocks, string) {
	uc, m := newReviewUseCase()
	h := NewReviewHandler(uc)

	a := fiber.New()
	a.Get("/search", h.SearchBooks)
	g := a.Group("/reviews", middlewares.JWTMiddleware())
	g.Get("/", h.ListReviews)
	g.Post("/", h.CreateReview)
	g.Get("/:id", h.GetReview)
	g.Patch("/:id", h.UpdateReview)
	g.Delete("/:id", h.DeleteReview)
	g.Post("/:id/cover", h.UploadCover)

	tok, err := token.GenerateJWT("m-1", "alice@x.com", string(token.RoleMember), "test")
	require.NoError(t, err)
	return a, m, tok
}

func do(t *testing.T, a *fiber.App, req *http.Request, tok string) (int, string) {
	if tok != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	resp, err := a.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestReviewHandler_CRUD(t *testing.T) {
	a, m, tok := newReviewApp(t)

	code, _ := do(t, a, httptest.NewRequest(fiber.MethodGet, "/reviews", nil), "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	m.repo.On("Create", mock.MatchedBy(func(r *domain.Review) bool { return r.UserEmail == "alice@x.com" })).Return(nil).Once()
	code, body := do(t, a, jsonRequest(fiber.MethodPost, "/reviews", `{"title":"데미안","content":"<p>hi</p>"}`), tok)
	assert.Equal(t, fiber.StatusCreated, code)
	assert.Contains(t, body, `"id":7`)
	assert.Contains(t, body, `"user_email":"alice@x.com"`)

	code, _ = do(t, a, jsonRequest(fiber.MethodPost, "/reviews", `{"content":"<p>hi</p>"}`), tok)
	assert.Equal(t, fiber.StatusBadRequest, code)

	m.repo.On("List", domain.ReviewQuery{Viewer: "alice@x.com", Mine: true, Keyword: "데미"}).Return([]domain.Review{*aliceReview}, nil).Once()
	code, body = do(t, a, httptest.NewRequest(fiber.MethodGet, "/reviews?mine=true&q=%EB%8D%B0%EB%AF%B8", nil), tok)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "데미안")

	m.repo.On("GetByID", uint(9)).Return(nil, domain.ErrReviewNotFound).Once()
	code, _ = do(t, a, httptest.NewRequest(fiber.MethodGet, "/reviews/9", nil), tok)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = do(t, a, httptest.NewRequest(fiber.MethodGet, "/reviews/abc", nil), tok)
	assert.Equal(t, fiber.StatusBadRequest, code)

	m.repo.On("GetByID", uint(7)).Return(aliceReview, nil)
	m.repo.On("Update", mock.Anything).Return(nil).Once()
	code, body = do(t, a, jsonRequest(fiber.MethodPatch, "/reviews/7", `{"content":"<p>again</p>"}`), tok)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "again")

	m.repo.On("Delete", uint(7)).Return(nil).Once()
	code, _ = do(t, a, httptest.NewRequest(fiber.MethodDelete, "/reviews/7", nil), tok)
	assert.Equal(t, fiber.StatusNoContent, code)

	bob, err := token.GenerateJWT("m-2", "bob@y.com", string(token.RoleMember), "test")
	require.NoError(t, err)
	code, _ = do(t, a, httptest.NewRequest(fiber.MethodDelete, "/reviews/7", nil), bob)
	assert.Equal(t, fiber.StatusNotFound, code)

	m.repo.AssertExpectations(t)
}

func TestReviewHandler_UploadCover(t *testing.T) {
	a, m, tok := newReviewApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="cover.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("png!"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	m.repo.On("GetByID", uint(7)).Return(aliceReview, nil).Once()
	m.covers.On("UploadReader", "covers/7/cover.png", int64(4), "image/png").Return(nil).Once()
	m.covers.On("PresignGetURL", "covers/7/cover.png", CoverURLExpiry).Return("http://minio/c.png", nil).Once()
	m.repo.On("Update", mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(fiber.MethodPost, "/reviews/7/cover", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	code, body := do(t, a, req, tok)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "http://minio/c.png")
	m.covers.AssertExpectations(t)

	code, _ = do(t, a, jsonRequest(fiber.MethodPost, "/reviews/7/cover", `{}`), tok)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestReviewHandler_SearchBooks(t *testing.T) {
	a, m, _ := newReviewApp(t)
	m.books.On("Search", "데미안").Return([]domain.Book{{Title: "데미안", Author: "헤르만 헤세"}}, nil).Once()

	code, body := do(t, a, httptest.NewRequest(fiber.MethodGet, "/search?query=%EB%8D%B0%EB%AF%B8%EC%95%88", nil), "")

	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "헤르만 헤세")
}
