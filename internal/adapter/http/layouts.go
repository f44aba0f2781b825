package httpadapter

import (
	"context"
	"net/http"
	"strconv"

	"gardensync/internal/domain/garden"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const exportFilename = "garden-layouts.json"

type saveLayoutRequest struct {
	Name   string        `json:"name"`
	Garden garden.Garden `json:"garden"`
}

type renameLayoutRequest struct {
	Name string `json:"name"`
}

type updateLayoutRequest struct {
	Garden garden.Garden `json:"garden"`
}

func (h Handler) listLayouts(c context.Context, ctx *app.RequestContext) {
	list, err := h.LayoutsUC.List(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if list == nil {
		list = []garden.SavedLayout{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"layouts": list})
}

func (h Handler) getLayout(c context.Context, ctx *app.RequestContext) {
	l, err := h.LayoutsUC.Get(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, l)
}

func (h Handler) saveLayout(c context.Context, ctx *app.RequestContext) {
	var body saveLayoutRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	l, err := h.LayoutsUC.Save(c, body.Name, body.Garden)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, l)
}

func (h Handler) updateLayout(c context.Context, ctx *app.RequestContext) {
	var body updateLayoutRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	l, err := h.LayoutsUC.Update(c, ctx.Param("id"), body.Garden)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, l)
}

func (h Handler) renameLayout(c context.Context, ctx *app.RequestContext) {
	var body renameLayoutRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	l, err := h.LayoutsUC.Rename(c, ctx.Param("id"), body.Name)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, l)
}

func (h Handler) deleteLayout(c context.Context, ctx *app.RequestContext) {
	if err := h.LayoutsUC.Delete(c, ctx.Param("id")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(consts.StatusNoContent)
}

func (h Handler) exportLayouts(c context.Context, ctx *app.RequestContext) {
	b, err := h.LayoutsUC.Export(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	ctx.Data(http.StatusOK, "application/json", b)
}

func (h Handler) importLayouts(c context.Context, ctx *app.RequestContext) {
	replace, _ := strconv.ParseBool(string(ctx.Query("replace")))
	res, err := h.LayoutsUC.Import(c, ctx.Request.Body(), replace)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}
