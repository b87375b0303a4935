package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/testutil"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/repository/boltdb"
	"github.com/fastygo/library/usecase/ledger"
)

type fixture struct {
	store  *boltdb.Store
	clock  *clock.Fixed
	ledger *ledger.UseCase
	admin  *domain.User
	member *domain.User
	book   *domain.Book
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.GivenStore(t)
	clk := clock.NewFixed(testutil.FakeClock)
	return fixture{
		store:  store,
		clock:  clk,
		ledger: ledger.New(store, clk, nil),
		admin:  testutil.GivenMember(t, store, "Admin", domain.RoleAdmin),
		member: testutil.GivenMember(t, store, "Jane", domain.RoleUser),
		book:   testutil.GivenBook(t, store, "1984"),
	}
}

func (f fixture) bookStatus(t *testing.T) domain.BookStatus {
	t.Helper()
	book, err := f.store.Books().GetByID(context.Background(), f.book.ID)
	require.NoError(t, err)
	return book.Status
}

func Test_Borrow_OpensLoanAndFlipsBook(t *testing.T) {
	// setup
	f := newFixture(t)
	ctx := context.Background()

	// act
	loan, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(f.member))

	// assert
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, loan.Status)
	assert.Equal(t, testutil.FakeClock, loan.BorrowDate)
	assert.Equal(t, testutil.FakeClock.Add(14*24*time.Hour), loan.DueDate)
	assert.Nil(t, loan.ReturnDate)
	assert.Equal(t, domain.BookBorrowed, f.bookStatus(t))

	stored, err := f.store.Loans().GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, f.book.ID, stored.BookID)
	assert.Equal(t, f.member.ID, stored.UserID)
}

func Test_Borrow_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := testutil.GivenMember(t, f.store, "Bob", domain.RoleUser)

	_, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(other))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.ledger.Borrow(ctx, "missing", f.member.ID, testutil.ActorOf(f.member))
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	_, err = f.ledger.Borrow(ctx, f.book.ID, "missing", testutil.ActorOf(f.admin))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	other.Status = domain.UserInactive
	require.NoError(t, f.store.Users().Update(ctx, other))
	_, err = f.ledger.Borrow(ctx, f.book.ID, other.ID, testutil.ActorOf(f.admin))
	assert.ErrorIs(t, err, domain.ErrMemberInactive)

	assert.Equal(t, domain.BookAvailable, f.bookStatus(t), "failed borrows leave the book untouched")
	n, err := f.store.Loans().CountOpenByBook(ctx, f.book.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func Test_Borrow_TwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := testutil.GivenMember(t, f.store, "Bob", domain.RoleUser)

	_, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)

	_, err = f.ledger.Borrow(ctx, f.book.ID, other.ID, testutil.ActorOf(other))
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func Test_Borrow_ConcurrentExactlyOneWins(t *testing.T) {
	// setup
	f := newFixture(t)
	ctx := context.Background()
	const contenders = 8
	members := make([]*domain.User, contenders)
	for i := range members {
		members[i] = testutil.GivenMember(t, f.store, "Reader", domain.RoleUser)
	}

	// act
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i, m := range members {
		wg.Add(1)
		go func(i int, m *domain.User) {
			defer wg.Done()
			_, errs[i] = f.ledger.Borrow(ctx, f.book.ID, m.ID, testutil.ActorOf(m))
		}(i, m)
	}
	wg.Wait()

	// assert
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrBookUnavailable)
	}
	assert.Equal(t, 1, wins)
	n, err := f.store.Loans().CountOpenByBook(ctx, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func Test_Return_ClosesLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)
	f.clock.Advance(3 * 24 * time.Hour)

	returned, err := f.ledger.Return(ctx, loan.ID, testutil.ActorOf(f.member))

	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, testutil.FakeClock.Add(3*24*time.Hour), *returned.ReturnDate)
	assert.Equal(t, loan.DueDate, returned.DueDate)
	assert.Equal(t, domain.BookAvailable, f.bookStatus(t))

	_, err = f.ledger.Return(ctx, loan.ID, testutil.ActorOf(f.member))
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)

	again, err := f.ledger.Borrow(ctx, f.book.ID, f.admin.ID, testutil.ActorOf(f.admin))
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, again.Status)
}

func Test_Return_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := testutil.GivenMember(t, f.store, "Bob", domain.RoleUser)
	loan, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)

	_, err = f.ledger.Return(ctx, "missing", testutil.ActorOf(f.admin))
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	_, err = f.ledger.Return(ctx, loan.ID, testutil.ActorOf(other))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, domain.BookBorrowed, f.bookStatus(t))

	_, err = f.ledger.Return(ctx, loan.ID, testutil.ActorOf(f.admin))
	assert.NoError(t, err)
}

func Test_SetStatus_ForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.ActorOf(f.admin)
	loan, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)

	_, err = f.ledger.SetStatus(ctx, loan.ID, domain.LoanOverdue, testutil.ActorOf(f.member))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.ledger.SetStatus(ctx, loan.ID, domain.LoanStatus("lost"), admin)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	overdue, err := f.ledger.SetStatus(ctx, loan.ID, domain.LoanOverdue, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, overdue.Status)
	assert.Equal(t, domain.BookBorrowed, f.bookStatus(t))

	_, err = f.ledger.SetStatus(ctx, loan.ID, domain.LoanActive, admin)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))

	f.clock.Advance(time.Hour)
	returned, err := f.ledger.SetStatus(ctx, loan.ID, domain.LoanReturned, admin)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, testutil.FakeClock.Add(time.Hour), *returned.ReturnDate)
	assert.Equal(t, domain.BookAvailable, f.bookStatus(t))

	_, err = f.ledger.SetStatus(ctx, loan.ID, domain.LoanReturned, admin)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
	_, err = f.ledger.SetStatus(ctx, loan.ID, domain.LoanOverdue, admin)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
}

func Test_SweepOverdue(t *testing.T) {
	// setup
	f := newFixture(t)
	ctx := context.Background()
	late, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)
	second := testutil.GivenBook(t, f.store, "Emma")
	fresh, err := f.ledger.Borrow(ctx, second.ID, f.member.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)

	f.clock.Advance(5 * 24 * time.Hour)
	assert.True(t, f.ledger.IsOverdue(late))
	assert.False(t, f.ledger.IsOverdue(fresh))

	_, err = f.ledger.SweepOverdue(ctx, testutil.ActorOf(f.member))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// act
	swept, err := f.ledger.SweepOverdue(ctx, domain.SystemActor)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	stored, err := f.store.Loans().GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, stored.Status)
	stored, err = f.store.Loans().GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, stored.Status)

	swept, err = f.ledger.SweepOverdue(ctx, domain.SystemActor)
	require.NoError(t, err)
	assert.Zero(t, swept)

	returned, err := f.ledger.Return(ctx, late.ID, testutil.ActorOf(f.member))
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, returned.Status)
}

func Test_MemberQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.ActorOf(f.member)
	second := testutil.GivenBook(t, f.store, "Emma")

	first, err := f.ledger.Borrow(ctx, f.book.ID, f.member.ID, actor)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.ledger.Borrow(ctx, second.ID, f.member.ID, actor)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.ledger.Return(ctx, first.ID, actor)
	require.NoError(t, err)

	open, err := f.ledger.MemberOpenLoans(ctx, f.member.ID, actor)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Emma", open[0].BookTitle)
	assert.False(t, open[0].Overdue)

	history, err := f.ledger.MemberHistory(ctx, f.member.ID, actor)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)

	_, err = f.ledger.MemberHistory(ctx, f.admin.ID, actor)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bookLoans, err := f.ledger.BookLoans(ctx, f.book.ID)
	require.NoError(t, err)
	assert.Len(t, bookLoans, 1)
	_, err = f.ledger.BookLoans(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	_, err = f.ledger.List(ctx, ledger.Query{}, actor)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	page, err := f.ledger.List(ctx, ledger.Query{Status: domain.LoanActive}, testutil.ActorOf(f.admin))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "Jane", page.Items[0].UserName)
}
