package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/repository"
)

func Test_BuildBookListQuery_WithAllFilters(t *testing.T) {
	// act
	sql, args, err := buildBookListQuery(repository.BookFilter{
		Status:   domain.BookAvailable,
		Category: "Fiction",
		Search:   "orwell",
		Sort:     repository.ParseBookSort("title:asc"),
		Page:     domain.PageRequest{Page: 2, Limit: 5},
	})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "books"`)
	assert.Contains(t, sql, `"status" = $1`)
	assert.Contains(t, sql, `"category" = $2`)
	assert.Contains(t, sql, `"title" ILIKE $3`)
	assert.Contains(t, sql, `"author" ILIKE $4`)
	assert.Contains(t, sql, `"isbn" ILIKE $5`)
	assert.Contains(t, sql, `ORDER BY "title" ASC`)
	assert.Contains(t, args, "available")
	assert.Contains(t, args, "Fiction")
	assert.Contains(t, args, "%orwell%")
}

func Test_BuildBookListQuery_DefaultsToNewestFirst(t *testing.T) {
	sql, args, err := buildBookListQuery(repository.BookFilter{})

	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, `ORDER BY "created_at" DESC`)
	assert.Contains(t, sql, "LIMIT")
	assert.NotContains(t, args, "%%")
}

func Test_BuildBookCountQuery_SharesFilters(t *testing.T) {
	sql, args, err := buildBookCountQuery(repository.BookFilter{Category: "Romance"})

	require.NoError(t, err)
	assert.Contains(t, sql, "COUNT(*)")
	assert.Contains(t, sql, `"category" = $1`)
	assert.NotContains(t, sql, "ORDER BY")
	assert.Equal(t, []interface{}{"Romance"}, args)
}

func Test_BuildUserListQuery_CountsOpenLoans(t *testing.T) {
	sql, args, err := buildUserListQuery(repository.UserFilter{
		Role:   domain.RoleUser,
		Status: domain.UserActive,
		Search: "jane",
	})

	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "users"`)
	assert.Contains(t, sql, `AS "borrowed_books"`)
	assert.Contains(t, sql, `"name" ILIKE`)
	assert.Contains(t, sql, `"email" ILIKE`)
	assert.Contains(t, args, "user")
	assert.Contains(t, args, "active")
	assert.Contains(t, args, "%jane%")
}

func Test_BuildLoanListQuery_JoinsBookAndUser(t *testing.T) {
	sql, args, err := buildLoanListQuery(repository.LoanFilter{
		Statuses: domain.OpenLoanStatuses,
		UserID:   "user-1",
		Order:    repository.OrderBorrowDesc,
	})

	require.NoError(t, err)
	assert.Contains(t, sql, `LEFT JOIN "books"`)
	assert.Contains(t, sql, `LEFT JOIN "users"`)
	assert.Contains(t, sql, `"transactions"."status" IN ($1, $2)`)
	assert.Contains(t, sql, `"transactions"."user_id" = $3`)
	assert.Contains(t, sql, `ORDER BY "transactions"."borrow_date" DESC`)
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, args, "active")
	assert.Contains(t, args, "overdue")
	assert.Contains(t, args, "user-1")
}

func Test_BuildLoanListQuery_UnboundedHasNoLimit(t *testing.T) {
	sql, _, err := buildLoanListQuery(repository.LoanFilter{
		BookID:    "book-1",
		Unbounded: true,
	})

	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, `ORDER BY "transactions"."created_at" DESC`)
}

func Test_BuildLoanListQuery_ReturnOrderPutsNullsLast(t *testing.T) {
	sql, _, err := buildLoanListQuery(repository.LoanFilter{
		Statuses: []domain.LoanStatus{domain.LoanReturned},
		Order:    repository.OrderReturnDesc,
	})

	require.NoError(t, err)
	assert.Contains(t, sql, `"transactions"."return_date" DESC NULLS LAST`)
}
