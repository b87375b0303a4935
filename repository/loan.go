package repository

import (
	"context"
	"time"

	"github.com/fastygo/library/domain"
)

// LoanOrder selects the ordering of a loan listing.
type LoanOrder string

const (
	OrderCreatedDesc LoanOrder = ""
	OrderBorrowDesc  LoanOrder = "borrow_desc"
	OrderReturnDesc  LoanOrder = "return_desc"
)

type LoanFilter struct {
	Statuses []domain.LoanStatus
	BookID   string
	UserID   string
	Order    LoanOrder
	Page     domain.PageRequest
	// Unbounded ignores Page and returns every matching row.
	Unbounded bool
}

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Loan, error)
	List(ctx context.Context, filter LoanFilter) ([]domain.LoanView, int, error)
	// ListDue returns active loans whose due date is before the cutoff,
	// oldest due date first.
	ListDue(ctx context.Context, before time.Time, limit int) ([]domain.Loan, error)
	CountOpenByBook(ctx context.Context, bookID string) (int, error)
	CountOpenByUser(ctx context.Context, userID string) (int, error)
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error)
	Create(ctx context.Context, loan *domain.Loan) error
	// Update persists status, return date and updated_at; the remaining
	// columns are immutable.
	Update(ctx context.Context, loan *domain.Loan) error
}
