package app

import (
	"errors"
	"strconv"

	"book_story_service/internal/api/comm"
	"book_story_service/internal/review/domain"
	"book_story_service/pkg/logger"
	"book_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReviewHandler definition review handler
type ReviewHandler struct {
	Usecase ReviewUseCase
}

// NewReviewHandler create ReviewHandler
func NewReviewHandler(uc ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{Usecase: uc}
}

func (h *ReviewHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case IsValidation(err):
		return comm.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCover):
		return comm.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrReviewNotFound):
		return comm.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		return comm.Fail(c, fiber.StatusForbidden, err.Error())
	default:
		logger.Log.Error("review api", zap.String("path", c.Path()), zap.Error(err))
		return comm.Fail(c, fiber.StatusInternalServerError, "internal error")
	}
}

func reviewID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	return uint(id), err == nil && id > 0
}

// CreateReview 新增書評
// @Summary Create a review
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreateReviewReq true "review"
// @Success 201 {object} domain.Review
// @Failure 400 {object} comm.ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	email, _ := middlewares.Email(c)
	var req domain.CreateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid request")
	}

	review, err := h.Usecase.Create(c.UserContext(), email, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// ListReviews 書評列表 (公開 + 自己的), 最新的在前
// @Summary List reviews
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param mine query bool false "only my reviews"
// @Param q query string false "title keyword"
// @Success 200 {array} domain.Review
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	email, _ := middlewares.Email(c)
	reviews, err := h.Usecase.List(c.UserContext(), domain.ReviewQuery{
		Viewer:  email,
		Mine:    c.QueryBool("mine"),
		Keyword: c.Query("q"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(reviews)
}

// GetReview 取得書評
// @Summary Get a review
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path int true "review id"
// @Success 200 {object} domain.Review
// @Failure 404 {object} comm.ErrorResponse
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(c *fiber.Ctx) error {
	id, ok := reviewID(c)
	if !ok {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid id")
	}
	email, _ := middlewares.Email(c)

	review, err := h.Usecase.Get(c.UserContext(), email, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(review)
}

// UpdateReview 修改書評內容或公開狀態
// @Summary Update a review
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "review id"
// @Param request body domain.UpdateReviewReq true "changes"
// @Success 200 {object} domain.Review
// @Failure 403 {object} comm.ErrorResponse
// @Failure 404 {object} comm.ErrorResponse
// @Router /reviews/{id} [put]
// @Router /reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	id, ok := reviewID(c)
	if !ok {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid id")
	}
	email, _ := middlewares.Email(c)
	var req domain.UpdateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid request")
	}

	review, err := h.Usecase.Update(c.UserContext(), email, id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(review)
}

// DeleteReview 刪除書評
// @Summary Delete a review
// @Tags Review
// @Security BearerAuth
// @Param id path int true "review id"
// @Success 204
// @Failure 403 {object} comm.ErrorResponse
// @Failure 404 {object} comm.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	id, ok := reviewID(c)
	if !ok {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid id")
	}
	email, _ := middlewares.Email(c)

	if err := h.Usecase.Delete(c.UserContext(), email, id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadCover 上傳封面圖片
// @Summary Upload a review cover
// @Tags Review
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "review id"
// @Param file formData file true "cover image"
// @Success 200 {object} domain.Review
// @Failure 400 {object} comm.ErrorResponse
// @Router /reviews/{id}/cover [post]
func (h *ReviewHandler) UploadCover(c *fiber.Ctx) error {
	id, ok := reviewID(c)
	if !ok {
		return comm.Fail(c, fiber.StatusBadRequest, "invalid id")
	}
	email, _ := middlewares.Email(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return comm.Fail(c, fiber.StatusBadRequest, "missing file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return comm.Fail(c, fiber.StatusBadRequest, "unreadable file")
	}
	defer file.Close()

	review, err := h.Usecase.UploadCover(c.UserContext(), domain.UploadCoverReq{
		ReviewID:    id,
		Owner:       email,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Size:        fileHeader.Size,
		File:        file,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(review)
}

// SearchBooks 以書名搜尋
// @Summary Search books by title
// @Tags Book
// @Produce json
// @Param query query string true "title"
// @Success 200 {array} domain.Book
// @Failure 500 {object} comm.ErrorResponse
// @Router /search [get]
func (h *ReviewHandler) SearchBooks(c *fiber.Ctx) error {
	books, err := h.Usecase.SearchBooks(c.UserContext(), c.Query("query"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(books)
}
