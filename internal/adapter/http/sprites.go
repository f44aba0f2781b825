package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"gardensync/internal/app/sprite"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type prerenderRequest struct {
	Requests []sprite.Request `json:"requests"`
}

func (h Handler) sprite(_ context.Context, ctx *app.RequestContext) {
	if h.Sprites == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "sprite engine not configured")
		return
	}
	req := sprite.Request{
		Category:  ctx.Param("category"),
		ID:        ctx.Param("id"),
		Mutations: splitList(string(ctx.Query("mutations"))),
	}
	b, ok := h.Sprites.RenderPNG(req)
	if !ok {
		writeErrorBody(ctx, consts.StatusNotFound, "sprite_not_found", "no texture for "+req.Category+"/"+req.ID)
		return
	}
	ctx.Response.Header.Set("Cache-Control", "max-age=300")
	ctx.Data(http.StatusOK, "image/png", b)
}

func (h Handler) prerender(_ context.Context, ctx *app.RequestContext) {
	if h.Sprites == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "sprite engine not configured")
		return
	}
	var body prerenderRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.Sprites.Prerender(body.Requests...)
	ctx.JSON(consts.StatusAccepted, map[string]any{"queued": len(body.Requests)})
}

// warmup starts icon resolution in the background; callers poll /ops/kpi for
// progress.
func (h Handler) warmup(_ context.Context, ctx *app.RequestContext) {
	if h.Sprites == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "sprite engine not configured")
		return
	}
	engine := h.Sprites
	go func() {
		if err := engine.Warmup(context.Background()); err != nil && engine.Logger != nil {
			engine.Logger.WithError(err).Warn("sprite warm-up aborted")
		}
	}()
	ctx.JSON(consts.StatusAccepted, engine.Stats().Warmup)
}

func (h Handler) clearSprites(_ context.Context, ctx *app.RequestContext) {
	if h.Sprites != nil {
		h.Sprites.ClearCache()
	}
	ctx.SetStatusCode(consts.StatusNoContent)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
