package boltdb

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/library/repository"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// runner executes bolt callbacks either in their own transaction or inside
// an already open one.
type runner interface {
	view(fn func(tx *bolt.Tx) error) error
	update(fn func(tx *bolt.Tx) error) error
}

type dbRunner struct {
	db *bolt.DB
}

func (r dbRunner) view(fn func(tx *bolt.Tx) error) error   { return r.db.View(fn) }
func (r dbRunner) update(fn func(tx *bolt.Tx) error) error { return r.db.Update(fn) }

type txRunner struct {
	tx *bolt.Tx
}

func (r txRunner) view(fn func(tx *bolt.Tx) error) error   { return fn(r.tx) }
func (r txRunner) update(fn func(tx *bolt.Tx) error) error { return fn(r.tx) }

type repositories struct {
	books repository.BookRepository
	users repository.UserRepository
	loans repository.LoanRepository
}

func newRepositories(r runner) repositories {
	return repositories{
		books: &bookRepository{run: r},
		users: &userRepository{run: r},
		loans: &loanRepository{run: r},
	}
}

func (r repositories) Books() repository.BookRepository { return r.books }
func (r repositories) Users() repository.UserRepository { return r.users }
func (r repositories) Loans() repository.LoanRepository { return r.loans }

// Store is the embedded repository.Store. BoltDB allows a single writable
// transaction at a time, so WithinTx scopes are fully serialized.
type Store struct {
	repositories
	db *bolt.DB
}

// NewStore wraps a database opened by infrastructure/boltdb.Open.
func NewStore(db *bolt.DB) *Store {
	return &Store{
		repositories: newRepositories(dbRunner{db: db}),
		db:           db,
	}
}

func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(ctx, newRepositories(txRunner{tx: tx}))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

var _ repository.Store = (*Store)(nil)
