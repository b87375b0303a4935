package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/repository"
)

// sweepBatch bounds how many due loans one sweep round loads.
const sweepBatch = 100

// Query narrows the admin-wide loan listing.
type Query struct {
	Status domain.LoanStatus
	Page   domain.PageRequest
}

// UseCase owns every state change of a loan and the book status tied to it.
type UseCase struct {
	store  repository.Store
	clock  clock.Clock
	logger *zap.Logger
}

func New(store repository.Store, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		clock:  clock.OrSystem(clk),
		logger: logger,
	}
}

// Borrow opens a loan of bookID for memberID and marks the book borrowed.
func (uc *UseCase) Borrow(ctx context.Context, bookID, memberID string, actor domain.Actor) (*domain.Loan, error) {
	log := logger.WithRequestID(ctx, uc.logger).With(
		zap.String("book_id", bookID),
		zap.String("user_id", memberID),
		zap.String("actor_id", actor.ID),
	)
	if err := actor.RequireSelfOrAdmin(memberID); err != nil {
		log.Warn("borrow rejected", zap.Error(err))
		return nil, err
	}

	var loan *domain.Loan
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		book, err := repos.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if !book.IsAvailable() {
			return domain.ErrBookUnavailable
		}
		member, err := repos.Users().GetByIDForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if !member.IsActive() {
			return domain.ErrMemberInactive
		}

		now := uc.clock.Now()
		loan = domain.NewLoan(uuid.NewString(), book.ID, member.ID, now)
		if err := repos.Loans().Create(ctx, loan); err != nil {
			return err
		}
		return repos.Books().SetStatus(ctx, book.ID, domain.BookBorrowed, now)
	})
	if err != nil {
		log.Debug("borrow failed", zap.Error(err))
		return nil, err
	}

	log.Info("book borrowed", zap.String("loan_id", loan.ID), zap.Time("due_date", loan.DueDate))
	return loan, nil
}

// Return closes an open loan and puts the book back on the shelf.
func (uc *UseCase) Return(ctx context.Context, loanID string, actor domain.Actor) (*domain.Loan, error) {
	log := logger.WithRequestID(ctx, uc.logger).With(
		zap.String("loan_id", loanID),
		zap.String("actor_id", actor.ID),
	)

	var loan *domain.Loan
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		loan, err = repos.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := actor.RequireSelfOrAdmin(loan.UserID); err != nil {
			return err
		}
		return uc.apply(ctx, repos, loan, domain.LoanReturned, uc.clock.Now())
	})
	if err != nil {
		log.Debug("return failed", zap.Error(err))
		return nil, err
	}

	log.Info("book returned", zap.String("book_id", loan.BookID))
	return loan, nil
}

// SetStatus is the administrative status override. Only forward moves are
// accepted; entering returned has the same effects as Return.
func (uc *UseCase) SetStatus(ctx context.Context, loanID string, status domain.LoanStatus, actor domain.Actor) (*domain.Loan, error) {
	log := logger.WithRequestID(ctx, uc.logger).With(
		zap.String("loan_id", loanID),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID),
	)
	if err := actor.RequireAdmin(); err != nil {
		log.Warn("status change rejected", zap.Error(err))
		return nil, err
	}

	var loan *domain.Loan
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		loan, err = repos.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return uc.apply(ctx, repos, loan, status, uc.clock.Now())
	})
	if err != nil {
		log.Debug("status change failed", zap.Error(err))
		return nil, err
	}

	log.Info("transaction status changed")
	return loan, nil
}

// SweepOverdue marks every active loan past its due date as overdue and
// returns how many loans were moved.
func (uc *UseCase) SweepOverdue(ctx context.Context, actor domain.Actor) (int, error) {
	if err := actor.RequireAdmin(); err != nil {
		return 0, err
	}
	log := logger.WithRequestID(ctx, uc.logger)

	swept := 0
	for {
		now := uc.clock.Now()
		due, err := uc.store.Loans().ListDue(ctx, now, sweepBatch)
		if err != nil {
			return swept, err
		}

		moved := 0
		for _, candidate := range due {
			if err := ctx.Err(); err != nil {
				return swept, err
			}
			ok, err := uc.markOverdue(ctx, candidate.ID, now)
			if err != nil {
				log.Error("failed to mark transaction overdue", zap.String("loan_id", candidate.ID), zap.Error(err))
				continue
			}
			if ok {
				moved++
			}
		}
		swept += moved

		if len(due) < sweepBatch || moved == 0 {
			break
		}
	}

	if swept > 0 {
		log.Info("overdue sweep finished", zap.Int("swept", swept))
	}
	return swept, nil
}

func (uc *UseCase) markOverdue(ctx context.Context, loanID string, now time.Time) (bool, error) {
	moved := false
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		loan, err := repos.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		// returned or already swept since ListDue ran
		if loan.Status != domain.LoanActive || !loan.IsOverdue(now) {
			return nil
		}
		if err := uc.apply(ctx, repos, loan, domain.LoanOverdue, now); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

// apply runs the state machine on loan and persists the result.
func (uc *UseCase) apply(ctx context.Context, repos repository.Repositories, loan *domain.Loan, to domain.LoanStatus, now time.Time) error {
	if err := loan.Transition(to, now); err != nil {
		return err
	}
	if err := repos.Loans().Update(ctx, loan); err != nil {
		return err
	}
	if to == domain.LoanReturned {
		return repos.Books().SetStatus(ctx, loan.BookID, domain.BookAvailable, now)
	}
	return nil
}

// IsOverdue evaluates the read-time overdue rule against the current clock.
func (uc *UseCase) IsOverdue(loan *domain.Loan) bool {
	return loan.IsOverdue(uc.clock.Now())
}

// Get returns one loan to its borrower or an admin.
func (uc *UseCase) Get(ctx context.Context, loanID string, actor domain.Actor) (*domain.Loan, error) {
	loan, err := uc.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireSelfOrAdmin(loan.UserID); err != nil {
		return nil, err
	}
	return loan, nil
}

// List is the admin-wide paginated listing, newest first.
func (uc *UseCase) List(ctx context.Context, query Query, actor domain.Actor) (domain.Page[domain.LoanView], error) {
	if err := actor.RequireAdmin(); err != nil {
		return domain.Page[domain.LoanView]{}, err
	}
	if query.Status != "" && !query.Status.Valid() {
		return domain.Page[domain.LoanView]{}, domain.Errorf(domain.ErrCodeInvalid, "unknown transaction status %q", query.Status)
	}

	filter := repository.LoanFilter{Page: query.Page.Normalize()}
	if query.Status != "" {
		filter.Statuses = []domain.LoanStatus{query.Status}
	}
	views, total, err := uc.store.Loans().List(ctx, filter)
	if err != nil {
		return domain.Page[domain.LoanView]{}, err
	}
	return domain.NewPage(uc.mark(views), total, filter.Page), nil
}

// BookLoans returns the full lending history of a book, newest first.
func (uc *UseCase) BookLoans(ctx context.Context, bookID string) ([]domain.LoanView, error) {
	if _, err := uc.store.Books().GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	views, _, err := uc.store.Loans().List(ctx, repository.LoanFilter{
		BookID:    bookID,
		Unbounded: true,
	})
	if err != nil {
		return nil, err
	}
	return uc.mark(views), nil
}

// MemberOpenLoans returns the books a member currently holds.
func (uc *UseCase) MemberOpenLoans(ctx context.Context, memberID string, actor domain.Actor) ([]domain.LoanView, error) {
	return uc.memberLoans(ctx, memberID, actor, repository.LoanFilter{
		Statuses: domain.OpenLoanStatuses,
		Order:    repository.OrderBorrowDesc,
	})
}

// MemberHistory returns a member's returned loans, latest return first.
func (uc *UseCase) MemberHistory(ctx context.Context, memberID string, actor domain.Actor) ([]domain.LoanView, error) {
	return uc.memberLoans(ctx, memberID, actor, repository.LoanFilter{
		Statuses: []domain.LoanStatus{domain.LoanReturned},
		Order:    repository.OrderReturnDesc,
	})
}

func (uc *UseCase) memberLoans(ctx context.Context, memberID string, actor domain.Actor, filter repository.LoanFilter) ([]domain.LoanView, error) {
	if err := actor.RequireSelfOrAdmin(memberID); err != nil {
		return nil, err
	}
	if _, err := uc.store.Users().GetByID(ctx, memberID); err != nil {
		return nil, err
	}
	filter.UserID = memberID
	filter.Unbounded = true
	views, _, err := uc.store.Loans().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.mark(views), nil
}

func (uc *UseCase) mark(views []domain.LoanView) []domain.LoanView {
	if views == nil {
		return []domain.LoanView{}
	}
	now := uc.clock.Now()
	for i := range views {
		views[i].Overdue = views[i].Loan.IsOverdue(now)
	}
	return views
}
