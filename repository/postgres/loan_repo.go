package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/repository"
)

// transactionsOpenBookIdx is the partial unique index allowing one open loan per book.
const transactionsOpenBookIdx = "transactions_open_book_idx"

const loanSelect = `
	SELECT id, book_id, user_id, borrow_date, due_date, return_date, status, created_at, updated_at
	FROM transactions
`

type loanRepository struct {
	q querier
}

func newLoanRepository(q querier) repository.LoanRepository {
	return &loanRepository{q: q}
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	return scanLoan(r.q.QueryRow(ctx, loanSelect+`WHERE id = $1`, id))
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Loan, error) {
	return scanLoan(r.q.QueryRow(ctx, loanSelect+`WHERE id = $1 FOR UPDATE`, id))
}

func (r *loanRepository) List(ctx context.Context, filter repository.LoanFilter) ([]domain.LoanView, int, error) {
	countSQL, countArgs, err := buildLoanCountQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := countRows(ctx, r.q, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := buildLoanListQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var views []domain.LoanView
	for rows.Next() {
		var (
			view   domain.LoanView
			status string
		)
		if err := rows.Scan(
			&view.ID,
			&view.BookID,
			&view.UserID,
			&view.BorrowDate,
			&view.DueDate,
			&view.ReturnDate,
			&status,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.BookTitle,
			&view.BookAuthor,
			&view.BookISBN,
			&view.BookCategory,
			&view.CoverImage,
			&view.UserName,
			&view.UserEmail,
		); err != nil {
			return nil, 0, err
		}
		view.Status = domain.LoanStatus(status)
		views = append(views, view)
	}
	return views, total, rows.Err()
}

func (r *loanRepository) ListDue(ctx context.Context, before time.Time, limit int) ([]domain.Loan, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx,
		loanSelect+`WHERE status = 'active' AND due_date < $1 ORDER BY due_date ASC, id ASC LIMIT $2`,
		before, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

func (r *loanRepository) CountOpenByBook(ctx context.Context, bookID string) (int, error) {
	return countRows(ctx, r.q,
		`SELECT COUNT(*) FROM transactions WHERE book_id = $1 AND status IN ('active', 'overdue')`,
		[]interface{}{bookID},
	)
}

func (r *loanRepository) CountOpenByUser(ctx context.Context, userID string) (int, error) {
	return countRows(ctx, r.q,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND status IN ('active', 'overdue')`,
		[]interface{}{userID},
	)
}

func (r *loanRepository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM transactions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.LoanStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.LoanStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	if loan == nil || loan.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO transactions (id, book_id, user_id, borrow_date, due_date, return_date, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), COALESCE($8, NOW()))
	RETURNING created_at, updated_at
	`

	if err := r.q.QueryRow(ctx, query,
		loan.ID,
		loan.BookID,
		loan.UserID,
		loan.BorrowDate,
		loan.DueDate,
		loan.ReturnDate,
		string(loan.Status),
		nullTime(loan.CreatedAt),
	).Scan(&loan.CreatedAt, &loan.UpdatedAt); err != nil {
		if uniqueViolationOn(err, transactionsOpenBookIdx) {
			return domain.ErrBookUnavailable
		}
		return err
	}
	return nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	if loan == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE transactions
	SET status = $2,
		return_date = $3,
		updated_at = COALESCE($4, NOW())
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.q.QueryRow(ctx, query,
		loan.ID,
		string(loan.Status),
		loan.ReturnDate,
		nullTime(loan.UpdatedAt),
	).Scan(&loan.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrLoanNotFound
		}
		return err
	}
	return nil
}

func scanLoan(row scanner) (*domain.Loan, error) {
	var (
		loan   domain.Loan
		status string
	)
	if err := row.Scan(
		&loan.ID,
		&loan.BookID,
		&loan.UserID,
		&loan.BorrowDate,
		&loan.DueDate,
		&loan.ReturnDate,
		&status,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	loan.Status = domain.LoanStatus(status)
	return &loan, nil
}
