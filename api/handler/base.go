package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/library/api/transport"
	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, err := transport.JSON.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func respondPage[T any](h baseHandler, ctx *fasthttp.RequestCtx, page domain.Page[T]) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(page.Items, transport.PageMeta{
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		requestCtx := logger.ContextWithRequestID(context.Background(), httpcontext.RequestID(ctx))
		logger.WithRequestID(requestCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err),
		)
		message = "internal server error"
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func mapError(err error) (int, string) {
	switch domain.CodeOf(err) {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.ErrCodeConflict:
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.ErrCodeInvalidTransition:
		return http.StatusConflict, string(domain.ErrCodeInvalidTransition)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

// actor returns the authenticated identity or answers 401.
func (h baseHandler) actor(ctx *fasthttp.RequestCtx) (domain.Actor, bool) {
	actor, ok := httpcontext.ActorOf(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrUnauthorized)
	}
	return actor, ok
}

// pathParam returns a router parameter or answers 400.
func (h baseHandler) pathParam(ctx *fasthttp.RequestCtx, name string) (string, bool) {
	value, _ := ctx.UserValue(name).(string)
	if value == "" {
		h.respondError(ctx, domain.Errorf(domain.ErrCodeInvalid, "missing %s", name))
		return "", false
	}
	return value, true
}

// decode unmarshals the body into dst or answers 400.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := transport.Decode(ctx.PostBody(), dst); err != nil {
		h.respondError(ctx, err)
		return false
	}
	return true
}

func query(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func pageRequest(ctx *fasthttp.RequestCtx) domain.PageRequest {
	return domain.PageRequest{
		Page:  parseInt(query(ctx, "page"), 1),
		Limit: parseInt(query(ctx, "limit"), domain.DefaultPageSize),
	}.Normalize()
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
