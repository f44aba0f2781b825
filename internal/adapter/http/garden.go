package httpadapter

import (
	"context"
	"time"

	"gardensync/internal/app/reconcile"
	"gardensync/internal/domain/garden"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type applyRequest struct {
	Garden  garden.Garden     `json:"garden"`
	Options reconcile.Options `json:"options"`
}

type invertRequest struct {
	Garden garden.Garden `json:"garden"`
	Plane  string        `json:"plane"`
}

type previewResponse struct {
	ID        int64         `json:"id"`
	Garden    garden.Garden `json:"garden"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type requirementView struct {
	reconcile.Requirement
	Short int `json:"short"`
}

func (h Handler) apply(c context.Context, ctx *app.RequestContext) {
	var body applyRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := h.ReconcileUC.Apply(c, body.Garden, body.Options)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) preview(c context.Context, ctx *app.RequestContext) {
	if h.Preview == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "preview not configured")
		return
	}
	var body applyRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	s, err := h.Preview.Preview(c, body.Garden, body.Options)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, previewResponse{ID: s.ID, Garden: s.Garden, ExpiresAt: s.ExpiresAt})
}

func (h Handler) cancelPreview(c context.Context, ctx *app.RequestContext) {
	if h.Preview == nil {
		ctx.SetStatusCode(consts.StatusNoContent)
		return
	}
	if err := h.Preview.Cancel(c); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(consts.StatusNoContent)
}

func (h Handler) requirements(c context.Context, ctx *app.RequestContext) {
	var body applyRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	reqs, err := h.ReconcileUC.RequirementSummary(c, body.Garden)
	if err != nil {
		writeError(ctx, err)
		return
	}
	out := make([]requirementView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, requirementView{Requirement: r, Short: r.Short()})
	}
	ctx.JSON(consts.StatusOK, map[string]any{"requirements": out})
}

func (h Handler) invert(c context.Context, ctx *app.RequestContext) {
	var body invertRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	plane := garden.PlaneDirt
	if body.Plane != "" {
		p, ok := garden.ParsePlane(body.Plane)
		if !ok {
			writeErrorBody(ctx, consts.StatusBadRequest, "invalid_plane", "unknown plane "+body.Plane)
			return
		}
		plane = p
	}
	out, err := h.ReconcileUC.Invert(c, body.Garden, plane)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"garden": out})
}
