package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/library/api/handler"
	"github.com/fastygo/library/internal/middleware"
)

type Handlers struct {
	Auth        *apiHandler.AuthHandler
	Book        *apiHandler.BookHandler
	User        *apiHandler.UserHandler
	Transaction *apiHandler.TransactionHandler
	Dashboard   *apiHandler.DashboardHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	admin := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authMiddleware(middleware.RequireAdmin(h))
	}

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api")

	// Auth routes
	api.POST("/auth/register", handlers.Auth.Register)
	api.POST("/auth/login", handlers.Auth.Login)
	api.POST("/auth/logout", authMiddleware(handlers.Auth.Logout))
	api.GET("/auth/me", authMiddleware(handlers.Auth.Me))

	// Catalog: reads are public
	api.GET("/books", handlers.Book.List)
	api.GET("/books/{id}", handlers.Book.Get)
	api.POST("/books", admin(handlers.Book.Create))
	api.PUT("/books/{id}", admin(handlers.Book.Update))
	api.DELETE("/books/{id}", admin(handlers.Book.Delete))

	api.GET("/users", admin(handlers.User.List))
	api.POST("/users", admin(handlers.User.Create))
	api.GET("/users/{id}", authMiddleware(handlers.User.Get))
	api.PUT("/users/{id}", authMiddleware(handlers.User.Update))
	api.DELETE("/users/{id}", admin(handlers.User.Delete))

	api.GET("/transactions", admin(handlers.Transaction.List))
	api.GET("/transactions/book/{bookId}", authMiddleware(handlers.Transaction.ByBook))
	api.GET("/transactions/user/{userId}/borrowed", authMiddleware(handlers.Transaction.Borrowed))
	api.GET("/transactions/user/{userId}/history", authMiddleware(handlers.Transaction.History))
	api.POST("/transactions", authMiddleware(handlers.Transaction.Borrow))
	api.PUT("/transactions/{id}/return", authMiddleware(handlers.Transaction.Return))
	api.PUT("/transactions/{id}", admin(handlers.Transaction.SetStatus))

	api.GET("/dashboard/stats", authMiddleware(handlers.Dashboard.Stats))
	api.GET("/dashboard/recent-books", authMiddleware(handlers.Dashboard.RecentBooks))
	api.GET("/dashboard/recent-transactions", authMiddleware(handlers.Dashboard.RecentTransactions))

	return r
}
