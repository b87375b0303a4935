package postgres

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/fastygo/library/repository"
)

const dialectPostgres = "postgres"

const (
	tableBooks        = "books"
	tableUsers        = "users"
	tableTransactions = "transactions"
)

var bookSortColumns = map[string]string{
	repository.SortCreatedAt:     "created_at",
	repository.SortTitle:         "title",
	repository.SortAuthor:        "author",
	repository.SortISBN:          "isbn",
	repository.SortCategory:      "category",
	repository.SortPublishedYear: "published_year",
	repository.SortStatus:        "status",
}

func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func likePattern(search string) string {
	return "%" + search + "%"
}

func bookWhere(filter repository.BookFilter) []exp.Expression {
	var where []exp.Expression
	if filter.Status != "" {
		where = append(where, goqu.C("status").Eq(string(filter.Status)))
	}
	if filter.Category != "" {
		where = append(where, goqu.C("category").Eq(filter.Category))
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		where = append(where, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").ILike(pattern),
		))
	}
	return where
}

func buildBookListQuery(filter repository.BookFilter) (string, []interface{}, error) {
	page := filter.Page.Normalize()
	sort := filter.Sort.OrDefault()
	column, ok := bookSortColumns[sort.Field]
	if !ok {
		column = "created_at"
	}
	order := goqu.I(column).Asc()
	if sort.Desc {
		order = goqu.I(column).Desc()
	}

	return builder().
		From(tableBooks).
		Select(bookColumns...).
		Where(bookWhere(filter)...).
		Order(order, goqu.I("id").Desc()).
		Limit(uint(page.Limit)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
}

func buildBookCountQuery(filter repository.BookFilter) (string, []interface{}, error) {
	return builder().
		From(tableBooks).
		Select(goqu.COUNT(goqu.Star())).
		Where(bookWhere(filter)...).
		Prepared(true).
		ToSQL()
}

func userWhere(filter repository.UserFilter) []exp.Expression {
	var where []exp.Expression
	if filter.Role != "" {
		where = append(where, goqu.C("role").Eq(string(filter.Role)))
	}
	if filter.Status != "" {
		where = append(where, goqu.C("status").Eq(string(filter.Status)))
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		where = append(where, goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("email").ILike(pattern),
		))
	}
	return where
}

// openLoansPerUser counts active and overdue loans of the outer users row.
var openLoansPerUser = goqu.L(
	`(SELECT COUNT(*) FROM transactions t WHERE t.user_id = users.id AND t.status IN ('active', 'overdue'))`,
).As("borrowed_books")

func buildUserListQuery(filter repository.UserFilter) (string, []interface{}, error) {
	page := filter.Page.Normalize()
	cols := append(append([]interface{}{}, userColumns...), openLoansPerUser)
	return builder().
		From(tableUsers).
		Select(cols...).
		Where(userWhere(filter)...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(uint(page.Limit)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
}

func buildUserCountQuery(filter repository.UserFilter) (string, []interface{}, error) {
	return builder().
		From(tableUsers).
		Select(goqu.COUNT(goqu.Star())).
		Where(userWhere(filter)...).
		Prepared(true).
		ToSQL()
}

var (
	loansT = goqu.T(tableTransactions)
	booksT = goqu.T(tableBooks)
	usersT = goqu.T(tableUsers)
)

// coalesceText keeps the empty-string default out of the placeholder list.
func coalesceText(col exp.IdentifierExpression) exp.SQLFunctionExpression {
	return goqu.COALESCE(col, goqu.L("''"))
}

func loanWhere(filter repository.LoanFilter) []exp.Expression {
	var where []exp.Expression
	if len(filter.Statuses) > 0 {
		statuses := make([]interface{}, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		where = append(where, loansT.Col("status").In(statuses...))
	}
	if filter.BookID != "" {
		where = append(where, loansT.Col("book_id").Eq(filter.BookID))
	}
	if filter.UserID != "" {
		where = append(where, loansT.Col("user_id").Eq(filter.UserID))
	}
	return where
}

func loanOrder(order repository.LoanOrder) []exp.OrderedExpression {
	switch order {
	case repository.OrderBorrowDesc:
		return []exp.OrderedExpression{loansT.Col("borrow_date").Desc(), loansT.Col("id").Desc()}
	case repository.OrderReturnDesc:
		return []exp.OrderedExpression{loansT.Col("return_date").Desc().NullsLast(), loansT.Col("id").Desc()}
	default:
		return []exp.OrderedExpression{loansT.Col("created_at").Desc(), loansT.Col("id").Desc()}
	}
}

func buildLoanListQuery(filter repository.LoanFilter) (string, []interface{}, error) {
	ds := builder().
		From(loansT).
		Select(
			loansT.Col("id"),
			loansT.Col("book_id"),
			loansT.Col("user_id"),
			loansT.Col("borrow_date"),
			loansT.Col("due_date"),
			loansT.Col("return_date"),
			loansT.Col("status"),
			loansT.Col("created_at"),
			loansT.Col("updated_at"),
			coalesceText(booksT.Col("title")).As("book_title"),
			coalesceText(booksT.Col("author")).As("book_author"),
			coalesceText(booksT.Col("isbn")).As("book_isbn"),
			coalesceText(booksT.Col("category")).As("book_category"),
			coalesceText(booksT.Col("cover_image")).As("cover_image"),
			coalesceText(usersT.Col("name")).As("user_name"),
			coalesceText(usersT.Col("email")).As("user_email"),
		).
		LeftJoin(booksT, goqu.On(booksT.Col("id").Eq(loansT.Col("book_id")))).
		LeftJoin(usersT, goqu.On(usersT.Col("id").Eq(loansT.Col("user_id")))).
		Where(loanWhere(filter)...).
		Order(loanOrder(filter.Order)...)

	if !filter.Unbounded {
		page := filter.Page.Normalize()
		ds = ds.Limit(uint(page.Limit)).Offset(uint(page.Offset()))
	}
	return ds.Prepared(true).ToSQL()
}

func buildLoanCountQuery(filter repository.LoanFilter) (string, []interface{}, error) {
	return builder().
		From(loansT).
		Select(goqu.COUNT(goqu.Star())).
		Where(loanWhere(filter)...).
		Prepared(true).
		ToSQL()
}
