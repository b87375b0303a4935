package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/library/api/transport"
	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/usecase/ledger"
)

type TransactionHandler struct {
	baseHandler
	uc *ledger.UseCase
}

func NewTransactionHandler(uc *ledger.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List all transactions
// @Tags transactions
// @Router /api/transactions [get]
func (h *TransactionHandler) List(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.List(stdCtx, ledger.Query{
		Status: domain.LoanStatus(query(ctx, "status")),
		Page:   pageRequest(ctx),
	}, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	respondPage(h.baseHandler, ctx, page)
}

// @Summary Lending history of a book
// @Tags transactions
// @Router /api/transactions/book/{bookId} [get]
func (h *TransactionHandler) ByBook(ctx *fasthttp.RequestCtx) {
	if _, ok := h.actor(ctx); !ok {
		return
	}
	bookID, ok := h.pathParam(ctx, "bookId")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	loans, err := h.uc.BookLoans(stdCtx, bookID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, loans)
}

// @Summary Books a member currently holds
// @Tags transactions
// @Router /api/transactions/user/{userId}/borrowed [get]
func (h *TransactionHandler) Borrowed(ctx *fasthttp.RequestCtx) {
	h.memberLoans(ctx, h.uc.MemberOpenLoans)
}

// @Summary Returned loans of a member
// @Tags transactions
// @Router /api/transactions/user/{userId}/history [get]
func (h *TransactionHandler) History(ctx *fasthttp.RequestCtx) {
	h.memberLoans(ctx, h.uc.MemberHistory)
}

func (h *TransactionHandler) memberLoans(
	ctx *fasthttp.RequestCtx,
	load func(ctx context.Context, memberID string, actor domain.Actor) ([]domain.LoanView, error),
) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	userID, ok := h.pathParam(ctx, "userId")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	loans, err := load(stdCtx, userID, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, loans)
}

// @Summary Borrow a book
// @Tags transactions
// @Router /api/transactions [post]
func (h *TransactionHandler) Borrow(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	var req transport.BorrowRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.BookID == "" {
		h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "bookId is required"))
		return
	}
	if req.UserID == "" {
		req.UserID = actor.ID
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	loan, err := h.uc.Borrow(stdCtx, req.BookID, req.UserID, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, loan)
}

// @Summary Return a borrowed book
// @Tags transactions
// @Router /api/transactions/{id}/return [put]
func (h *TransactionHandler) Return(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	loan, err := h.uc.Return(stdCtx, id, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, loan)
}

// @Summary Override a transaction status
// @Tags transactions
// @Router /api/transactions/{id} [put]
func (h *TransactionHandler) SetStatus(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var req transport.StatusRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	loan, err := h.uc.SetStatus(stdCtx, id, domain.LoanStatus(req.Status), actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, loan)
}
