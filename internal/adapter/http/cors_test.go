package httpadapter

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func TestApplyCORSHeaders(t *testing.T) {
	ctx := &app.RequestContext{}
	applyCORSHeaders(ctx, nil)

	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "*"; got != want {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), corsAllowMethods; got != want {
		t.Fatalf("allow-methods mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Headers")), corsAllowHeaders; got != want {
		t.Fatalf("allow-headers mismatch: got=%q want=%q", got, want)
	}
}

func TestApplyCORSHeaders_AllowList(t *testing.T) {
	allowed := []string{"https://magicgarden.gg"}

	ctx := &app.RequestContext{}
	ctx.Request.Header.Set("Origin", "https://magicgarden.gg")
	applyCORSHeaders(ctx, allowed)
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "https://magicgarden.gg"; got != want {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, want)
	}

	other := &app.RequestContext{}
	other.Request.Header.Set("Origin", "https://evil.example")
	applyCORSHeaders(other, allowed)
	if got := string(other.Response.Header.Peek("Access-Control-Allow-Origin")); got != "" {
		t.Fatalf("unlisted origin must not be allowed, got=%q", got)
	}
}

func TestCORSMiddleware_AnswersPreflight(t *testing.T) {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(consts.MethodOptions)

	corsMiddleware(nil)(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got != consts.StatusNoContent {
		t.Fatalf("status mismatch: got=%d want=%d", got, consts.StatusNoContent)
	}
	if !ctx.IsAborted() {
		t.Fatalf("expected preflight to abort the chain")
	}
}
