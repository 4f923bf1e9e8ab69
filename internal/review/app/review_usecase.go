package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"book_story_service/internal/review/domain"
	"book_story_service/internal/review/repository"
	errprocess "book_story_service/pkg/err"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CoverURLExpiry lifetime of a presigned cover url
const CoverURLExpiry = 7 * 24 * time.Hour

// CoverStorage object storage for cover images
type CoverStorage interface {
	UploadReader(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ReviewUseCase 這裡封裝了對外提供的應用服務
type ReviewUseCase interface {
	Create(ctx context.Context, owner string, req domain.CreateReviewReq) (*domain.Review, error)
	Get(ctx context.Context, viewer string, id uint) (*domain.Review, error)
	List(ctx context.Context, query domain.ReviewQuery) ([]domain.Review, error)
	Update(ctx context.Context, owner string, id uint, req domain.UpdateReviewReq) (*domain.Review, error)
	Delete(ctx context.Context, owner string, id uint) error
	SearchBooks(ctx context.Context, query string) ([]domain.Book, error)
	UploadCover(ctx context.Context, up domain.UploadCoverReq) (*domain.Review, error)
}

type reviewUseCase struct {
	repo     repository.ReviewRepo
	books    repository.BookSearcher
	covers   CoverStorage
	validate *validator.Validate
}

// NewReviewUseCase 建立一個新的 ReviewUseCase
func NewReviewUseCase(repo repository.ReviewRepo, books repository.BookSearcher, covers CoverStorage) ReviewUseCase {
	return &reviewUseCase{
		repo:     repo,
		books:    books,
		covers:   covers,
		validate: validator.New(),
	}
}

// ValidationError request failed validation
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func (s *reviewUseCase) Create(ctx context.Context, owner string, req domain.CreateReviewReq) (*domain.Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	review := domain.Review{
		Title:     strings.TrimSpace(req.Title),
		Author:    strings.TrimSpace(req.Author),
		Cover:     req.Cover,
		Content:   req.Content,
		UserEmail: owner,
		IsPublic:  req.IsPublic,
	}
	if err := s.repo.Create(ctx, &review); err != nil {
		return nil, errprocess.Wrap("create review", err, zap.String("owner", owner))
	}
	return &review, nil
}

// Get a review visible to viewer
func (s *reviewUseCase) Get(ctx context.Context, viewer string, id uint) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.CanView(viewer) {
		return nil, domain.ErrReviewNotFound
	}
	return review, nil
}

func (s *reviewUseCase) List(ctx context.Context, query domain.ReviewQuery) ([]domain.Review, error) {
	query.Keyword = strings.TrimSpace(query.Keyword)
	return s.repo.List(ctx, query)
}

func (s *reviewUseCase) owned(ctx context.Context, owner string, id uint) (*domain.Review, error) {
	review, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if review.UserEmail != owner {
		return nil, domain.ErrNotOwner
	}
	return review, nil
}

func (s *reviewUseCase) Update(ctx context.Context, owner string, id uint, req domain.UpdateReviewReq) (*domain.Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}
	review, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		review.Content = *req.Content
	}
	if req.IsPublic != nil {
		review.IsPublic = *req.IsPublic
	}
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, errprocess.Wrap("update review", err, zap.Uint("id", id))
	}
	return review, nil
}

func (s *reviewUseCase) Delete(ctx context.Context, owner string, id uint) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *reviewUseCase) SearchBooks(ctx context.Context, query string) ([]domain.Book, error) {
	books, err := s.books.Search(ctx, query)
	if err != nil {
		return nil, errprocess.Wrap("search books", err, zap.String("query", query))
	}
	return books, nil
}

// UploadCover stores the image under covers/{reviewID}/{file} and points the review at it
func (s *reviewUseCase) UploadCover(ctx context.Context, up domain.UploadCoverReq) (*domain.Review, error) {
	if up.Size <= 0 || up.Size > domain.MaxCoverSize || !strings.HasPrefix(up.ContentType, "image/") {
		return nil, domain.ErrInvalidCover
	}
	review, err := s.owned(ctx, up.Owner, up.ReviewID)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("covers/%d/%s", review.ID, path.Base(up.FileName))
	if err := s.covers.UploadReader(ctx, objectName, up.File, up.Size, up.ContentType); err != nil {
		return nil, errprocess.Wrap("upload cover", err, zap.String("object", objectName))
	}

	coverURL, err := s.covers.PresignGetURL(ctx, objectName, CoverURLExpiry)
	if err != nil {
		return nil, errprocess.Wrap("presign cover", err, zap.String("object", objectName))
	}

	review.Cover = coverURL
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, errprocess.Wrap("update review cover", err, zap.Uint("id", review.ID))
	}
	return review, nil
}

// IsValidation reports whether err came from request validation
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
