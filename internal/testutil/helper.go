// Package testutil holds fixtures shared by store-backed tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	boltInfra "github.com/fastygo/library/internal/infrastructure/boltdb"
	"github.com/fastygo/library/repository"
	"github.com/fastygo/library/repository/boltdb"
)

// FakeClock is the fixed instant store-backed tests start from.
var FakeClock = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

// GivenStore opens an embedded store in a temporary directory.
func GivenStore(t testing.TB) *boltdb.Store {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "library.db"), nil)
	require.NoError(t, err, "error in arranging test data")

	store := boltdb.NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// GivenBook stores an available book with a unique ISBN.
func GivenBook(t testing.TB, store repository.Store, title string) *domain.Book {
	t.Helper()
	id := uuid.NewString()
	book := &domain.Book{
		ID:        id,
		Title:     title,
		Author:    "Test Author",
		ISBN:      "isbn-" + id[:8],
		Category:  "Fiction",
		CreatedAt: FakeClock,
		UpdatedAt: FakeClock,
	}
	book.Normalize()
	require.NoError(t, store.Books().Create(context.Background(), book), "error in arranging test data")
	return book
}

// GivenMember stores an active member with the given role.
func GivenMember(t testing.TB, store repository.Store, name string, role domain.Role) *domain.User {
	t.Helper()
	id := uuid.NewString()
	user := &domain.User{
		ID:           id,
		Name:         name,
		Email:        id[:8] + "@example.com",
		PasswordHash: "not-a-hash",
		Role:         role,
		CreatedAt:    FakeClock,
		UpdatedAt:    FakeClock,
	}
	user.Normalize()
	require.NoError(t, store.Users().Create(context.Background(), user), "error in arranging test data")
	return user
}

// ActorOf returns the actor acting as user.
func ActorOf(user *domain.User) domain.Actor {
	return domain.Actor{ID: user.ID, Role: user.Role}
}
