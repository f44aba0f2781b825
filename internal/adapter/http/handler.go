package httpadapter

import (
	"context"
	"encoding/json"
	"errors"

	"gardensync/internal/adapter/notify"
	"gardensync/internal/app/layouts"
	"gardensync/internal/app/ports"
	"gardensync/internal/app/reconcile"
	"gardensync/internal/app/sprite"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Handler struct {
	ReconcileUC    reconcile.UseCase
	Preview        *reconcile.Previewer
	LayoutsUC      layouts.UseCase
	Sprites        *sprite.Engine
	Notices        noticeFeed
	KPI            kpiSnapshotProvider
	AllowedOrigins []string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowedOrigins))

	g := s.Group("/api/garden")
	g.POST("/apply", h.apply)
	g.POST("/preview", h.preview)
	g.DELETE("/preview", h.cancelPreview)
	g.POST("/requirements", h.requirements)
	g.POST("/invert", h.invert)

	l := s.Group("/api/layouts")
	l.GET("", h.listLayouts)
	l.POST("", h.saveLayout)
	l.GET("/export", h.exportLayouts)
	l.POST("/import", h.importLayouts)
	l.GET("/:id", h.getLayout)
	l.PUT("/:id", h.updateLayout)
	l.POST("/:id/rename", h.renameLayout)
	l.DELETE("/:id", h.deleteLayout)

	sp := s.Group("/api/sprites")
	sp.POST("/warmup", h.warmup)
	sp.POST("/prerender", h.prerender)
	sp.DELETE("/cache", h.clearSprites)
	sp.GET("/:category/:id", h.sprite)

	s.GET("/api/notices", h.notices)
	s.GET("/ops/kpi", h.kpi)
}

type noticeFeed interface {
	Recent() []notify.Entry
}

func (h Handler) notices(_ context.Context, ctx *app.RequestContext) {
	if h.Notices == nil {
		ctx.JSON(consts.StatusOK, map[string]any{"notices": []notify.Entry{}})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"notices": h.Notices.Recent()})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	body := map[string]any{"reconcile": h.KPI.SnapshotAny()}
	if h.Sprites != nil {
		body["sprites"] = h.Sprites.Stats()
	}
	ctx.JSON(consts.StatusOK, body)
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	var blocked *reconcile.BlockedTilesError
	switch {
	case errors.As(err, &blocked):
		ctx.JSON(consts.StatusConflict, map[string]any{
			"error": map[string]any{
				"code":    "blocked_tiles",
				"message": err.Error(),
				"details": map[string]any{"tiles": blocked.Tiles},
			},
		})
	case errors.Is(err, reconcile.ErrInvalidDraft),
		errors.Is(err, layouts.ErrInvalidImport),
		errors.Is(err, layouts.ErrInvalidName):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotReady):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "not_ready", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeErrorBody(ctx, consts.StatusGatewayTimeout, "timeout", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
