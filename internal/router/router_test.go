package router_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/library/api/handler"
	"github.com/fastygo/library/api/transport"
	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/infrastructure/monitor"
	"github.com/fastygo/library/internal/middleware"
	"github.com/fastygo/library/internal/router"
	"github.com/fastygo/library/internal/testutil"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/pkg/token"
	authUC "github.com/fastygo/library/usecase/auth"
	"github.com/fastygo/library/usecase/catalog"
	"github.com/fastygo/library/usecase/dashboard"
	"github.com/fastygo/library/usecase/ledger"
	"github.com/fastygo/library/usecase/membership"
)

type healthy struct{}

func (healthy) GetStatus() monitor.Status {
	return monitor.Status{Store: true, StoreDriver: "bolt"}
}

type response struct {
	Status string              `json:"status"`
	Code   string              `json:"code"`
	Data   jsoniter.RawMessage `json:"data"`
	Error  string              `json:"error"`
	Meta   *transport.PageMeta `json:"meta"`
}

type app struct {
	t       *testing.T
	handler fasthttp.RequestHandler
}

func givenApp(t *testing.T) *app {
	t.Helper()
	store := testutil.GivenStore(t)
	clk := clock.NewFixed(testutil.FakeClock)

	tokens, err := token.NewManager("test-secret", "library-test", time.Hour, clk)
	require.NoError(t, err)

	members := membership.New(store, clk, nil)
	_, err = members.Register(context.Background(), membership.NewMember{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: "admin123",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)

	auth := authUC.New(store.Users(), members, nil, tokens, clk, nil)
	adapter := httpcontext.NewAdapter(time.Second)

	r := router.New(router.Handlers{
		Auth:        apiHandler.NewAuthHandler(auth, adapter, nil),
		Book:        apiHandler.NewBookHandler(catalog.New(store, clk, nil), adapter, nil),
		User:        apiHandler.NewUserHandler(members, adapter, nil),
		Transaction: apiHandler.NewTransactionHandler(ledger.New(store, clk, nil), adapter, nil),
		Dashboard:   apiHandler.NewDashboardHandler(dashboard.New(store, nil), adapter, nil),
		Health:      apiHandler.NewHealthHandler(healthy{}, adapter, nil),
	}, middleware.JWTAuth(auth, adapter, nil))

	return &app{t: t, handler: r.Handler}
}

func (a *app) do(method, uri, bearer string, body interface{}) (int, response) {
	a.t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if bearer != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		raw, err := transport.JSON.Marshal(body)
		require.NoError(a.t, err)
		ctx.Request.SetBody(raw)
		ctx.Request.Header.SetContentType("application/json")
	}

	a.handler(ctx)

	var res response
	if len(ctx.Response.Body()) > 0 {
		require.NoError(a.t, transport.JSON.Unmarshal(ctx.Response.Body(), &res), string(ctx.Response.Body()))
	}
	return ctx.Response.StatusCode(), res
}

func (a *app) login(email, password string) string {
	a.t.Helper()
	status, res := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(a.t, http.StatusOK, status, res.Error)

	var login authUC.Login
	require.NoError(a.t, transport.JSON.Unmarshal(res.Data, &login))
	require.NotEmpty(a.t, login.Token)
	return login.Token
}

func decodeData[T any](t *testing.T, res response) T {
	t.Helper()
	var out T
	require.NoError(t, transport.JSON.Unmarshal(res.Data, &out))
	return out
}

func Test_BorrowAndReturnFlow(t *testing.T) {
	// setup
	a := givenApp(t)

	status, res := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Reader",
		"email":    "reader@example.com",
		"password": "reader123",
	})
	require.Equal(t, http.StatusCreated, status, res.Error)
	reader := decodeData[domain.User](t, res)
	assert.Equal(t, domain.RoleUser, reader.Role)

	adminToken := a.login("admin@example.com", "admin123")
	readerToken := a.login("reader@example.com", "reader123")

	book := map[string]interface{}{
		"title":    "Dune",
		"author":   "Frank Herbert",
		"isbn":     "9780441172719",
		"category": "Science Fiction",
	}

	status, _ = a.do(http.MethodPost, "/api/books", readerToken, book)
	require.Equal(t, http.StatusForbidden, status)

	status, res = a.do(http.MethodPost, "/api/books", adminToken, book)
	require.Equal(t, http.StatusCreated, status, res.Error)
	created := decodeData[domain.Book](t, res)
	assert.Equal(t, domain.BookAvailable, created.Status)

	// act: borrow
	status, res = a.do(http.MethodPost, "/api/transactions", readerToken, map[string]string{"bookId": created.ID})

	// assert
	require.Equal(t, http.StatusCreated, status, res.Error)
	loan := decodeData[domain.Loan](t, res)
	assert.Equal(t, reader.ID, loan.UserID)
	assert.Equal(t, domain.LoanActive, loan.Status)
	assert.Equal(t, testutil.FakeClock.Add(domain.LoanPeriod), loan.DueDate)

	status, res = a.do(http.MethodPost, "/api/transactions", adminToken, map[string]string{
		"bookId": created.ID,
		"userId": reader.ID,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(domain.ErrCodeConflict), res.Code)

	status, res = a.do(http.MethodGet, "/api/dashboard/stats", readerToken, nil)
	require.Equal(t, http.StatusOK, status)
	stats := decodeData[domain.DashboardStats](t, res)
	assert.Equal(t, 1, stats.BorrowedBooks)
	assert.Equal(t, 1, stats.ActiveTransactions)

	status, res = a.do(http.MethodGet, "/api/transactions/user/"+reader.ID+"/borrowed", readerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]domain.LoanView](t, res), 1)

	// act: return
	status, res = a.do(http.MethodPut, "/api/transactions/"+loan.ID+"/return", readerToken, nil)

	// assert
	require.Equal(t, http.StatusOK, status, res.Error)
	returned := decodeData[domain.Loan](t, res)
	assert.Equal(t, domain.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)

	status, res = a.do(http.MethodGet, "/api/books/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.BookAvailable, decodeData[domain.Book](t, res).Status)

	status, res = a.do(http.MethodPut, "/api/transactions/"+loan.ID+"/return", readerToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already returned", res.Error)
}

func Test_Routes_RequireAuthentication(t *testing.T) {
	a := givenApp(t)

	status, _ := a.do(http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(http.MethodGet, "/api/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func Test_ListUsers_CarriesPagination(t *testing.T) {
	// setup
	a := givenApp(t)
	adminToken := a.login("admin@example.com", "admin123")

	// act
	status, res := a.do(http.MethodGet, "/api/users?page=1&limit=10", adminToken, nil)

	// assert
	require.Equal(t, http.StatusOK, status, res.Error)
	require.NotNil(t, res.Meta)
	assert.Equal(t, 1, res.Meta.Total)
	assert.Equal(t, 1, res.Meta.Page)
	assert.Equal(t, 10, res.Meta.Limit)
	assert.Len(t, decodeData[[]domain.MemberView](t, res), 1)
}

func Test_Health(t *testing.T) {
	a := givenApp(t)

	status, res := a.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", res.Status)
}
