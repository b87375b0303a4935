package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/testutil"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/usecase/catalog"
	"github.com/fastygo/library/usecase/ledger"
)

func strPtr(s string) *string { return &s }

func Test_Create(t *testing.T) {
	// setup
	store := testutil.GivenStore(t)
	uc := catalog.New(store, clock.NewFixed(testutil.FakeClock), nil)
	admin := domain.Actor{ID: "admin", Role: domain.RoleAdmin}
	ctx := context.Background()

	// act
	book, err := uc.Create(ctx, &domain.Book{
		Title:    " The Hobbit ",
		Author:   "J.R.R. Tolkien",
		ISBN:     "9780547928227",
		Category: "Fantasy",
		Status:   domain.BookBorrowed,
	}, admin)

	// assert
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Equal(t, domain.BookAvailable, book.Status)
	assert.Equal(t, domain.DefaultLanguage, book.Language)
	assert.Equal(t, testutil.FakeClock, book.CreatedAt)

	found, err := uc.GetByISBN(ctx, "9780547928227")
	require.NoError(t, err)
	assert.Equal(t, book.ID, found.ID)
}

func Test_Create_Rejections(t *testing.T) {
	store := testutil.GivenStore(t)
	uc := catalog.New(store, nil, nil)
	admin := domain.Actor{ID: "admin", Role: domain.RoleAdmin}
	ctx := context.Background()
	valid := func() *domain.Book {
		return &domain.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", Category: "Science Fiction"}
	}

	_, err := uc.Create(ctx, valid(), domain.Actor{ID: "u", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	missing := valid()
	missing.Category = "  "
	_, err = uc.Create(ctx, missing, admin)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, valid(), admin)
	require.NoError(t, err)
	_, err = uc.Create(ctx, valid(), admin)
	assert.ErrorIs(t, err, domain.ErrDuplicateISBN)
}

func Test_Update_KeepsStatusAndChecksISBN(t *testing.T) {
	store := testutil.GivenStore(t)
	clk := clock.NewFixed(testutil.FakeClock)
	uc := catalog.New(store, clk, nil)
	admin := domain.Actor{ID: "admin", Role: domain.RoleAdmin}
	ctx := context.Background()
	first := testutil.GivenBook(t, store, "First")
	second := testutil.GivenBook(t, store, "Second")

	clk.Advance(1)
	updated, err := uc.Update(ctx, first.ID, domain.BookPatch{Title: strPtr("First, revised")}, admin)
	require.NoError(t, err)
	assert.Equal(t, "First, revised", updated.Title)
	assert.Equal(t, first.ISBN, updated.ISBN)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = uc.Update(ctx, first.ID, domain.BookPatch{ISBN: strPtr(second.ISBN)}, admin)
	assert.ErrorIs(t, err, domain.ErrDuplicateISBN)

	_, err = uc.Update(ctx, first.ID, domain.BookPatch{Title: strPtr("")}, admin)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Update(ctx, "missing", domain.BookPatch{}, admin)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	stored, err := uc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First, revised", stored.Title)
}

func Test_Delete_GuardedByOpenLoan(t *testing.T) {
	// setup
	store := testutil.GivenStore(t)
	clk := clock.NewFixed(testutil.FakeClock)
	uc := catalog.New(store, clk, nil)
	loans := ledger.New(store, clk, nil)
	ctx := context.Background()
	admin := testutil.GivenMember(t, store, "Admin", domain.RoleAdmin)
	book := testutil.GivenBook(t, store, "Held")
	loan, err := loans.Borrow(ctx, book.ID, admin.ID, testutil.ActorOf(admin))
	require.NoError(t, err)

	// act + assert
	err = uc.Delete(ctx, book.ID, testutil.ActorOf(admin))
	assert.ErrorIs(t, err, domain.ErrBookHasLoans)
	_, err = uc.Get(ctx, book.ID)
	assert.NoError(t, err)

	_, err = loans.Return(ctx, loan.ID, testutil.ActorOf(admin))
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, book.ID, testutil.ActorOf(admin)))

	_, err = uc.Get(ctx, book.ID)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	kept, err := store.Loans().GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, kept.Status)
}

func Test_List(t *testing.T) {
	store := testutil.GivenStore(t)
	uc := catalog.New(store, nil, nil)
	ctx := context.Background()
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		testutil.GivenBook(t, store, title)
	}

	page, err := uc.List(ctx, catalog.Query{Sort: "title:desc", Page: domain.PageRequest{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Gamma", page.Items[0].Title)

	empty, err := uc.List(ctx, catalog.Query{Search: "nothing matches"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)

	_, err = uc.List(ctx, catalog.Query{Status: "lost"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
