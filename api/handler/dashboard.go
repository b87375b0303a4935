package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/usecase/dashboard"
)

type DashboardHandler struct {
	baseHandler
	uc *dashboard.UseCase
}

func NewDashboardHandler(uc *dashboard.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Dashboard counters
// @Tags dashboard
// @Router /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.Stats(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Newest catalog entries
// @Tags dashboard
// @Router /api/dashboard/recent-books [get]
func (h *DashboardHandler) RecentBooks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	books, err := h.uc.RecentBooks(stdCtx, parseInt(query(ctx, "limit"), dashboard.DefaultRecent))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, books)
}

// @Summary Newest transactions
// @Tags dashboard
// @Router /api/dashboard/recent-transactions [get]
func (h *DashboardHandler) RecentTransactions(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	loans, err := h.uc.RecentLoans(stdCtx, parseInt(query(ctx, "limit"), dashboard.DefaultRecent))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, loans)
}
