package domain

import (
	"errors"
	"io"
	"time"
)

var (
	// ErrReviewNotFound review does not exist or is not visible to the caller
	ErrReviewNotFound = errors.New("review not found")
	// ErrNotOwner only the author may change a review
	ErrNotOwner = errors.New("review belongs to another member")
	// ErrInvalidCover upload is not an image or too large
	ErrInvalidCover = errors.New("cover must be an image up to 5MB")
)

// MaxCoverSize largest accepted cover upload
const MaxCoverSize = 5 << 20

// Review 定義書評模型, Content is the editor HTML
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;index" json:"title"`
	Author    string    `json:"author"`
	Cover     string    `json:"cover"`
	Content   string    `gorm:"type:text" json:"content"`
	UserEmail string    `gorm:"not null;index" json:"user_email"`
	IsPublic  bool      `gorm:"not null;default:false" json:"is_public"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanView private reviews are only visible to their author
func (r *Review) CanView(email string) bool {
	return r.IsPublic || r.UserEmail == email
}

// CreateReviewReq body of POST /reviews
type CreateReviewReq struct {
	Title    string `json:"title" validate:"required,max=300"`
	Author   string `json:"author" validate:"max=300"`
	Cover    string `json:"cover" validate:"omitempty,url"`
	Content  string `json:"content" validate:"required"`
	IsPublic bool   `json:"is_public"`
}

// UpdateReviewReq body of PATCH /reviews/{id}
type UpdateReviewReq struct {
	Content  *string `json:"content" validate:"omitempty,min=1"`
	IsPublic *bool   `json:"is_public"`
}

// ReviewQuery filters the library listing
type ReviewQuery struct {
	Viewer  string
	// Mine only the viewer's own reviews
	Mine bool
	// Keyword case-insensitive title match
	Keyword string
}

// Book one search result of the book search api
type Book struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Cover       string `json:"cover"`
	Publisher   string `json:"publisher"`
	PubDate     string `json:"pubDate"`
	ISBN13      string `json:"isbn13"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// UploadCoverReq usecase upload cover request
type UploadCoverReq struct {
	ReviewID    uint
	Owner       string
	FileName    string
	ContentType string
	Size        int64
	File        io.Reader
}
