package boltdb

import (
	"cmp"
	"context"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/library/domain"
	boltInfra "github.com/fastygo/library/internal/infrastructure/boltdb"
	"github.com/fastygo/library/repository"
)

type loanRecord struct {
	domain.Loan
	Seq uint64 `json:"seq"`
}

type loanRepository struct {
	run runner
}

func (r *loanRepository) GetByID(_ context.Context, id string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := r.run.view(func(tx *bolt.Tx) error {
		rec, err := loadLoan(tx, id)
		if err != nil {
			return err
		}
		loan = &rec.Loan
		return nil
	})
	return loan, err
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *loanRepository) List(_ context.Context, filter repository.LoanFilter) ([]domain.LoanView, int, error) {
	var views []domain.LoanView
	var total int
	err := r.run.view(func(tx *bolt.Tx) error {
		var matched []loanRecord
		if err := forEachLoan(tx, func(rec loanRecord) error {
			if loanMatches(rec.Loan, filter) {
				matched = append(matched, rec)
			}
			return nil
		}); err != nil {
			return err
		}
		total = len(matched)

		sortLoans(matched, filter.Order)
		if !filter.Unbounded {
			matched = paginate(matched, filter.Page)
		}

		views = make([]domain.LoanView, 0, len(matched))
		for _, rec := range matched {
			view := domain.LoanView{Loan: rec.Loan}
			var (
				book *domain.Book
				user *domain.User
			)
			if b, err := loadBook(tx, rec.BookID); err == nil {
				book = &b.Book
			}
			if u, err := loadUser(tx, rec.UserID); err == nil {
				usr := u.user()
				user = &usr
			}
			view.Attach(book, user)
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (r *loanRepository) ListDue(_ context.Context, before time.Time, limit int) ([]domain.Loan, error) {
	if limit <= 0 {
		limit = 100
	}
	var due []domain.Loan
	err := r.run.view(func(tx *bolt.Tx) error {
		return forEachLoan(tx, func(rec loanRecord) error {
			if rec.Status == domain.LoanActive && rec.DueDate.Before(before) {
				due = append(due, rec.Loan)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(due, func(a, b domain.Loan) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *loanRepository) CountOpenByBook(_ context.Context, bookID string) (int, error) {
	return r.countOpen(func(l domain.Loan) bool { return l.BookID == bookID })
}

func (r *loanRepository) CountOpenByUser(_ context.Context, userID string) (int, error) {
	return r.countOpen(func(l domain.Loan) bool { return l.UserID == userID })
}

func (r *loanRepository) countOpen(match func(domain.Loan) bool) (int, error) {
	var n int
	err := r.run.view(func(tx *bolt.Tx) error {
		return forEachLoan(tx, func(rec loanRecord) error {
			if rec.Status.IsOpen() && match(rec.Loan) {
				n++
			}
			return nil
		})
	})
	return n, err
}

func (r *loanRepository) CountByStatus(_ context.Context) (map[domain.LoanStatus]int, error) {
	counts := make(map[domain.LoanStatus]int)
	err := r.run.view(func(tx *bolt.Tx) error {
		return forEachLoan(tx, func(rec loanRecord) error {
			counts[rec.Status]++
			return nil
		})
	})
	return counts, err
}

func (r *loanRepository) Create(_ context.Context, loan *domain.Loan) error {
	if loan == nil || loan.ID == "" {
		return domain.ErrInvalidPayload
	}
	return r.run.update(func(tx *bolt.Tx) error {
		if tx.Bucket(boltInfra.BucketLoans).Get([]byte(loan.ID)) != nil {
			return domain.Errorf(domain.ErrCodeConflict, "transaction %s already exists", loan.ID)
		}
		if loan.Status.IsOpen() {
			conflict := false
			if err := forEachLoan(tx, func(rec loanRecord) error {
				if rec.BookID == loan.BookID && rec.Status.IsOpen() {
					conflict = true
				}
				return nil
			}); err != nil {
				return err
			}
			if conflict {
				return domain.ErrBookUnavailable
			}
		}
		seq, err := nextSeq(tx, boltInfra.BucketLoans)
		if err != nil {
			return err
		}
		stamp(&loan.CreatedAt, &loan.UpdatedAt)
		return put(tx, boltInfra.BucketLoans, loan.ID, loanRecord{Loan: *loan, Seq: seq})
	})
}

func (r *loanRepository) Update(_ context.Context, loan *domain.Loan) error {
	if loan == nil {
		return domain.ErrInvalidPayload
	}
	return r.run.update(func(tx *bolt.Tx) error {
		rec, err := loadLoan(tx, loan.ID)
		if err != nil {
			return err
		}
		rec.Status = loan.Status
		rec.ReturnDate = loan.ReturnDate
		rec.UpdatedAt = loan.UpdatedAt
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = time.Now().UTC()
		}
		loan.UpdatedAt = rec.UpdatedAt
		return put(tx, boltInfra.BucketLoans, loan.ID, rec)
	})
}

func loadLoan(tx *bolt.Tx, id string) (*loanRecord, error) {
	var rec loanRecord
	found, err := get(tx, boltInfra.BucketLoans, id, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrLoanNotFound
	}
	return &rec, nil
}

func forEachLoan(tx *bolt.Tx, fn func(rec loanRecord) error) error {
	return tx.Bucket(boltInfra.BucketLoans).ForEach(func(_, v []byte) error {
		var rec loanRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		return fn(rec)
	})
}

func loanMatches(loan domain.Loan, filter repository.LoanFilter) bool {
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, loan.Status) {
		return false
	}
	if filter.BookID != "" && loan.BookID != filter.BookID {
		return false
	}
	if filter.UserID != "" && loan.UserID != filter.UserID {
		return false
	}
	return true
}

// sortLoans orders newest first by the selected timestamp, falling back to
// insertion order.
func sortLoans(records []loanRecord, order repository.LoanOrder) {
	slices.SortStableFunc(records, func(a, b loanRecord) int {
		var c int
		switch order {
		case repository.OrderBorrowDesc:
			c = b.BorrowDate.Compare(a.BorrowDate)
		case repository.OrderReturnDesc:
			c = compareReturnDesc(a.ReturnDate, b.ReturnDate)
		default:
			c = b.CreatedAt.Compare(a.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(b.Seq, a.Seq)
		}
		return c
	})
}

func compareReturnDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}
