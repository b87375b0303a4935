package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/library/repository"
)

type repositories struct {
	books repository.BookRepository
	users repository.UserRepository
	loans repository.LoanRepository
}

func newRepositories(q querier) repositories {
	return repositories{
		books: newBookRepository(q),
		users: newUserRepository(q),
		loans: newLoanRepository(q),
	}
}

func (r repositories) Books() repository.BookRepository { return r.books }
func (r repositories) Users() repository.UserRepository { return r.users }
func (r repositories) Loans() repository.LoanRepository { return r.loans }

// Store is the Postgres-backed repository.Store.
type Store struct {
	repositories
	pool *pgxpool.Pool
}

// NewStore wraps an open pool. The pool is closed by Close.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		repositories: newRepositories(pool),
		pool:         pool,
	}
}

// WithinTx runs fn in a read-committed transaction. Row locks taken through
// the *ForUpdate reads serialize competing writers on the same book or loan.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) (err error) {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = pgTx.Rollback(context.Background())
			panic(p)
		}
		if err != nil {
			if rbErr := pgTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fn(ctx, newRepositories(pgTx)); err != nil {
		return err
	}
	if err = pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ repository.Store = (*Store)(nil)
