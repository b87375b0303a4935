package membership_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/testutil"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/password"
	"github.com/fastygo/library/usecase/ledger"
	"github.com/fastygo/library/usecase/membership"
)

var admin = domain.Actor{ID: "admin", Role: domain.RoleAdmin}

func ptr[T any](v T) *T { return &v }

func Test_Register(t *testing.T) {
	// setup
	store := testutil.GivenStore(t)
	uc := membership.New(store, clock.NewFixed(testutil.FakeClock), nil)
	ctx := context.Background()

	// act
	user, err := uc.Register(ctx, membership.NewMember{
		Name:     "Jane Doe",
		Email:    " Jane@Example.com",
		Password: "secret1",
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, domain.UserActive, user.Status)
	assert.NoError(t, password.Compare(user.PasswordHash, "secret1"))

	_, err = uc.Register(ctx, membership.NewMember{Name: "Other", Email: "jane@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	_, err = uc.Register(ctx, membership.NewMember{Name: "Short", Email: "short@example.com", Password: "123"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Register(ctx, membership.NewMember{Name: "Bad", Email: "not-an-email", Password: "secret1"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Register(ctx, membership.NewMember{Name: "Root", Email: "root@example.com", Password: "secret1", Role: "root"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func Test_Create_AdminOnly(t *testing.T) {
	store := testutil.GivenStore(t)
	uc := membership.New(store, nil, nil)
	input := membership.NewMember{Name: "Jane", Email: "jane@example.com", Password: "secret1"}

	_, err := uc.Create(context.Background(), input, domain.Actor{ID: "u", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	user, err := uc.Create(context.Background(), input, admin)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
}

func Test_Get_SelfOrAdmin(t *testing.T) {
	store := testutil.GivenStore(t)
	uc := membership.New(store, nil, nil)
	ctx := context.Background()
	jane := testutil.GivenMember(t, store, "Jane", domain.RoleUser)
	bob := testutil.GivenMember(t, store, "Bob", domain.RoleUser)

	got, err := uc.Get(ctx, jane.ID, testutil.ActorOf(jane))
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)

	_, err = uc.Get(ctx, jane.ID, testutil.ActorOf(bob))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetByEmail(ctx, jane.Email, testutil.ActorOf(bob))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err = uc.GetByEmail(ctx, jane.Email, admin)
	require.NoError(t, err)
	assert.Equal(t, jane.ID, got.ID)

	_, err = uc.Get(ctx, "missing", admin)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func Test_Update(t *testing.T) {
	store := testutil.GivenStore(t)
	uc := membership.New(store, nil, nil)
	ctx := context.Background()
	jane := testutil.GivenMember(t, store, "Jane", domain.RoleUser)
	bob := testutil.GivenMember(t, store, "Bob", domain.RoleUser)
	self := testutil.ActorOf(jane)

	updated, err := uc.Update(ctx, jane.ID, domain.UserPatch{
		Name:     ptr("Jane Austen"),
		Password: ptr("newsecret"),
	}, self)
	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", updated.Name)
	assert.NoError(t, password.Compare(updated.PasswordHash, "newsecret"))

	_, err = uc.Update(ctx, jane.ID, domain.UserPatch{Role: ptr(domain.RoleAdmin)}, self)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Update(ctx, jane.ID, domain.UserPatch{Name: ptr("x")}, testutil.ActorOf(bob))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Update(ctx, jane.ID, domain.UserPatch{Email: ptr(bob.Email)}, self)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	_, err = uc.Update(ctx, jane.ID, domain.UserPatch{Password: ptr("123")}, self)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	demoted, err := uc.Update(ctx, jane.ID, domain.UserPatch{Status: ptr(domain.UserInactive)}, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.UserInactive, demoted.Status)

	stored, err := store.Users().GetByID(ctx, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", stored.Name)
	assert.Equal(t, jane.Email, stored.Email)
}

func Test_Delete_GuardedByOpenLoan(t *testing.T) {
	// setup
	store := testutil.GivenStore(t)
	uc := membership.New(store, nil, nil)
	loans := ledger.New(store, nil, nil)
	ctx := context.Background()
	jane := testutil.GivenMember(t, store, "Jane", domain.RoleUser)
	book := testutil.GivenBook(t, store, "1984")
	loan, err := loans.Borrow(ctx, book.ID, jane.ID, testutil.ActorOf(jane))
	require.NoError(t, err)

	// act + assert
	assert.ErrorIs(t, uc.Delete(ctx, jane.ID, testutil.ActorOf(jane)), domain.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, jane.ID, admin), domain.ErrUserHasLoans)

	page, err := uc.List(ctx, membership.Query{}, admin)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Items[0].BorrowedBooks)

	_, err = loans.Return(ctx, loan.ID, testutil.ActorOf(jane))
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, jane.ID, admin))
	_, err = store.Users().GetByID(ctx, jane.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, jane.ID, admin), domain.ErrUserNotFound)
}

func Test_List_Filters(t *testing.T) {
	store := testutil.GivenStore(t)
	uc := membership.New(store, nil, nil)
	ctx := context.Background()
	testutil.GivenMember(t, store, "Admin", domain.RoleAdmin)
	testutil.GivenMember(t, store, "Jane", domain.RoleUser)
	testutil.GivenMember(t, store, "Bob", domain.RoleUser)

	users, err := uc.List(ctx, membership.Query{Role: domain.RoleUser}, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, users.Total)

	found, err := uc.List(ctx, membership.Query{Search: "jan"}, admin)
	require.NoError(t, err)
	require.Equal(t, 1, found.Total)
	assert.Equal(t, "Jane", found.Items[0].Name)

	_, err = uc.List(ctx, membership.Query{}, domain.Actor{ID: "u", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
