package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/repository"
)

// DefaultRecent is the size of the recent-activity lists.
const DefaultRecent = 5

// UseCase serves read-only aggregates over the catalog and the ledger.
type UseCase struct {
	store  repository.Store
	logger *zap.Logger
}

func New(store repository.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		logger: logger,
	}
}

func (uc *UseCase) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats

	books, err := uc.store.Books().CountByStatus(ctx)
	if err != nil {
		return stats, err
	}
	users, err := uc.store.Users().Count(ctx)
	if err != nil {
		return stats, err
	}
	loans, err := uc.store.Loans().CountByStatus(ctx)
	if err != nil {
		return stats, err
	}

	stats.AvailableBooks = books[domain.BookAvailable]
	stats.BorrowedBooks = books[domain.BookBorrowed]
	stats.TotalBooks = stats.AvailableBooks + stats.BorrowedBooks
	stats.TotalUsers = users
	stats.OverdueBooks = loans[domain.LoanOverdue]
	stats.ActiveTransactions = loans[domain.LoanActive] + stats.OverdueBooks
	return stats, nil
}

// RecentBooks returns the n newest catalog entries; n <= 0 means DefaultRecent.
func (uc *UseCase) RecentBooks(ctx context.Context, n int) ([]domain.Book, error) {
	books, _, err := uc.store.Books().List(ctx, repository.BookFilter{
		Sort: repository.DefaultBookSort,
		Page: domain.PageRequest{Page: 1, Limit: recentLimit(n)},
	})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

// RecentLoans returns the n newest loans with book and member details.
func (uc *UseCase) RecentLoans(ctx context.Context, n int) ([]domain.LoanView, error) {
	loans, _, err := uc.store.Loans().List(ctx, repository.LoanFilter{
		Order: repository.OrderCreatedDesc,
		Page:  domain.PageRequest{Page: 1, Limit: recentLimit(n)},
	})
	if err != nil {
		return nil, err
	}
	if loans == nil {
		loans = []domain.LoanView{}
	}
	return loans, nil
}

func recentLimit(n int) int {
	if n <= 0 {
		return DefaultRecent
	}
	if n > domain.MaxPageSize {
		return domain.MaxPageSize
	}
	return n
}
