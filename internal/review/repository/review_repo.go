package repository

import (
	"context"
	"errors"

	"book_story_service/internal/review/domain"

	"gorm.io/gorm"
)

// ReviewRepo definition get review info
type ReviewRepo interface {
	AutoMigrate() error
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id uint) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query domain.ReviewQuery) ([]domain.Review, error)
}

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo create ReviewRepo
func NewReviewRepo(db *gorm.DB) ReviewRepo {
	return &reviewRepo{db: db}
}

// AutoMigrate creates or updates the reviews table
func (r *reviewRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Review{})
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*domain.Review, error) {
	var v domain.Review
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Update saves every column of review
func (r *reviewRepo) Update(ctx context.Context, review *domain.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// List public reviews plus the viewer's own, newest first
func (r *reviewRepo) List(ctx context.Context, query domain.ReviewQuery) ([]domain.Review, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Review{})
	if query.Mine {
		tx = tx.Where("user_email = ?", query.Viewer)
	} else {
		tx = tx.Where("is_public = ? OR user_email = ?", true, query.Viewer)
	}
	if query.Keyword != "" {
		tx = tx.Where("title ILIKE ?", "%"+query.Keyword+"%")
	}

	var reviews []domain.Review
	if err := tx.Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
