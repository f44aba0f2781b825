package httpadapter

import (
	"context"
	"slices"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const corsAllowMethods = "GET,POST,PUT,DELETE,OPTIONS"
const corsAllowHeaders = "Content-Type"

// applyCORSHeaders allows any origin when the list is empty. Otherwise only a
// listed request origin is echoed back.
func applyCORSHeaders(ctx *app.RequestContext, allowed []string) {
	if len(allowed) == 0 {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	} else {
		ctx.Response.Header.Set("Vary", "Origin")
		origin := string(ctx.Request.Header.Peek("Origin"))
		if origin == "" || !slices.Contains(allowed, origin) {
			return
		}
		ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
	}
	ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Max-Age", "600")
}

func corsMiddleware(allowed []string) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		applyCORSHeaders(ctx, allowed)
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
