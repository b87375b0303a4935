package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/library/domain"
	appLogger "github.com/fastygo/library/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyActor      Key = "actor"
	KeySessionID  Key = "session_id"
)

const HeaderRequestID = "X-Request-ID"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches
// it with request metadata and the authenticated actor, if any.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if actor, ok := ActorOf(ctx); ok {
		stdCtx = context.WithValue(stdCtx, KeyActor, actor)
	}

	return stdCtx, cancel
}

// RequestID returns the request id of ctx, assigning one and echoing it in
// the response on first use.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(HeaderRequestID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	ctx.SetUserValue(HeaderRequestID, id)
	ctx.Response.Header.Set(HeaderRequestID, id)
	return id
}

// SetActor records the authenticated identity on the request. Only the auth
// middleware calls it; client headers never populate it.
func SetActor(ctx *fasthttp.RequestCtx, actor domain.Actor, sessionID string) {
	ctx.SetUserValue(string(KeyActor), actor)
	ctx.SetUserValue(string(KeySessionID), sessionID)
}

// ActorOf returns the identity recorded by SetActor.
func ActorOf(ctx *fasthttp.RequestCtx) (domain.Actor, bool) {
	actor, ok := ctx.UserValue(string(KeyActor)).(domain.Actor)
	return actor, ok && actor.ID != ""
}

// SessionIDOf returns the session recorded by SetActor.
func SessionIDOf(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(string(KeySessionID)).(string)
	return id
}

// ActorFromContext returns the actor attached by Attach.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(KeyActor).(domain.Actor)
	return actor, ok
}
