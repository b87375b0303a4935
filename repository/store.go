package repository

import "context"

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Books() BookRepository
	Users() UserRepository
	Loans() LoanRepository
}

// TxFunc runs inside a transactional scope. Returning an error rolls back
// every write made through repos.
type TxFunc func(ctx context.Context, repos Repositories) error

// Store is the persistence handle opened at process start and closed at
// shutdown.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close() error
}
