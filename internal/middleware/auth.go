package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/library/api/transport"
	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/pkg/token"
)

// Authenticator resolves a bearer token to the acting identity.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.Actor, *token.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and records the
// token's actor on the request for the handlers.
func JWTAuth(auth Authenticator, adapter *httpcontext.Adapter, log *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "no token provided")
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			actor, claims, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.WithRequestID(stdCtx, log).Error("token verification failed", zap.Error(err))
					reject(ctx, http.StatusInternalServerError, domain.ErrCodeInternal, "internal server error")
					return
				}
				logger.WithRequestID(stdCtx, log).Debug("invalid jwt token", zap.Error(err))
				reject(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "not authorized")
				return
			}

			httpcontext.SetActor(ctx, actor, claims.SessionID)
			next(ctx)
		}
	}
}

// RequireAdmin wraps a handler already guarded by JWTAuth.
func RequireAdmin(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := httpcontext.ActorOf(ctx)
		if !ok {
			reject(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "not authorized")
			return
		}
		if !actor.IsAdmin() {
			reject(ctx, http.StatusForbidden, domain.ErrCodeForbidden, "admin role required")
			return
		}
		next(ctx)
	}
}

func reject(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	body, _ := transport.JSON.Marshal(transport.NewError(string(code), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
