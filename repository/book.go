package repository

import (
	"context"
	"time"

	"github.com/fastygo/library/domain"
)

type BookFilter struct {
	Status   domain.BookStatus
	Category string
	Search   string
	Sort     SortSpec
	Page     domain.PageRequest
}

type BookRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	// GetByIDForUpdate reads the book and holds it against concurrent writers
	// until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*domain.Book, error)
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)
	CountByStatus(ctx context.Context) (map[domain.BookStatus]int, error)
	Create(ctx context.Context, book *domain.Book) error
	Update(ctx context.Context, book *domain.Book) error
	SetStatus(ctx context.Context, id string, status domain.BookStatus, at time.Time) error
	Delete(ctx context.Context, id string) error
}
