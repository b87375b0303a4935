package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/library/domain"
)

func Test_Attach_RequestIDAndActor(t *testing.T) {
	// setup
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(HeaderRequestID, "req-42")
	SetActor(&rc, domain.Actor{ID: "u1", Role: domain.RoleUser}, "sid")

	// act
	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	// assert
	assert.Equal(t, "req-42", string(rc.Response.Header.Peek(HeaderRequestID)))
	actor, ok := ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", actor.ID)
	assert.Equal(t, "sid", SessionIDOf(&rc))
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func Test_RequestID_GeneratedOnce(t *testing.T) {
	var rc fasthttp.RequestCtx

	first := RequestID(&rc)
	second := RequestID(&rc)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, first, string(rc.Response.Header.Peek(HeaderRequestID)))
}

func Test_ActorOf_Missing(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-User-ID", "spoofed")

	_, ok := ActorOf(&rc)
	assert.False(t, ok)
}
