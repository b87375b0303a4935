package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/seed"
	"github.com/fastygo/library/internal/testutil"
	"github.com/fastygo/library/pkg/password"
	"github.com/fastygo/library/usecase/catalog"
	"github.com/fastygo/library/usecase/membership"
)

func Test_Run_IsIdempotent(t *testing.T) {
	// setup
	store := testutil.GivenStore(t)
	seeder := seed.New(store, membership.New(store, nil, nil), catalog.New(store, nil, nil), nil)
	ctx := context.Background()

	// act
	first, err := seeder.Run(ctx)
	require.NoError(t, err)
	second, err := seeder.Run(ctx)
	require.NoError(t, err)

	// assert
	assert.Equal(t, seed.Result{Users: 2, Books: 5}, first)
	assert.Equal(t, seed.Result{}, second)

	admin, err := store.Users().GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NoError(t, password.Compare(admin.PasswordHash, "admin123"))

	book, err := store.Books().GetByISBN(ctx, "9780451524935")
	require.NoError(t, err)
	assert.Equal(t, "1984", book.Title)
	assert.Equal(t, domain.BookAvailable, book.Status)
}
