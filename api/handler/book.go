package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/library/api/transport"
	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/usecase/catalog"
)

type BookHandler struct {
	baseHandler
	uc *catalog.UseCase
}

func NewBookHandler(uc *catalog.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List books
// @Tags books
// @Param status query string false "available or borrowed"
// @Param category query string false "exact category"
// @Param search query string false "title, author or ISBN"
// @Param sort query string false "field:dir"
// @Router /api/books [get]
func (h *BookHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.List(stdCtx, catalog.Query{
		Status:   domain.BookStatus(query(ctx, "status")),
		Category: query(ctx, "category"),
		Search:   query(ctx, "search"),
		Sort:     query(ctx, "sort"),
		Page:     pageRequest(ctx),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	respondPage(h.baseHandler, ctx, page)
}

// @Summary Get a book
// @Tags books
// @Router /api/books/{id} [get]
func (h *BookHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	book, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, book)
}

// @Summary Add a book
// @Tags books
// @Router /api/books [post]
func (h *BookHandler) Create(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	var req transport.BookRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	book, err := h.uc.Create(stdCtx, transport.ToBook(req), actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, book)
}

// @Summary Update a book
// @Tags books
// @Router /api/books/{id} [put]
func (h *BookHandler) Update(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var req transport.BookRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	book, err := h.uc.Update(stdCtx, id, req, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, book)
}

// @Summary Delete a book
// @Tags books
// @Router /api/books/{id} [delete]
func (h *BookHandler) Delete(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.Delete(stdCtx, id, actor); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
