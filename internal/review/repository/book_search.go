package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"book_story_service/internal/review/domain"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookSearcher looks books up by title
type BookSearcher interface {
	Search(ctx context.Context, query string) ([]domain.Book, error)
}

type aladinSearcher struct {
	endpoint string
	ttbKey   string
}

// NewAladinSearcher ItemSearch client for the aladin open api
func NewAladinSearcher(endpoint, ttbKey string) BookSearcher {
	return &aladinSearcher{endpoint: endpoint, ttbKey: ttbKey}
}

type aladinResponse struct {
	Item []domain.Book `json:"item"`
}

// Search returns at most 12 books whose title matches query. An empty query yields no books.
func (s *aladinSearcher) Search(ctx context.Context, query string) ([]domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Book{}, nil
	}

	q := url.Values{}
	q.Set("ttbkey", s.ttbKey)
	q.Set("Query", query)
	q.Set("QueryType", "Title")
	q.Set("MaxResults", "12")
	q.Set("SearchTarget", "Book")
	q.Set("output", "js")
	q.Set("Version", "20131101")

	a := fiber.Get(s.endpoint)
	a.QueryString(q.Encode())
	a.Timeout(10 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		a.Timeout(time.Until(d))
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("book search: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("book search: status %d", code)
	}

	var resp aladinResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode book search: %w", err)
	}
	if resp.Item == nil {
		return []domain.Book{}, nil
	}
	return resp.Item, nil
}
