package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/handler/request"
	"github.com/yumyai/genepanel/pkg/heatmap"
	"github.com/yumyai/genepanel/pkg/middle"
	"github.com/yumyai/genepanel/pkg/model"
	"github.com/yumyai/genepanel/pkg/render"
)

// commitPending adds text the user typed but had not committed when they
// clicked an action, before the action runs.
func commitPending(c *controller.Controller, r *http.Request) {
	if text := request.PendingGenes(r); text != "" {
		c.Commit(text)
	}
}

// Every state-changing form posts back here (post/redirect/get).
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *AppContext) MainPage(w http.ResponseWriter, r *http.Request) {

	c := app.Sessions.ForRequest(w, r)
	state := c.Snapshot()

	var buf bytes.Buffer
	if err := render.RenderPanelPage(&buf, render.NewPanelPageData(state, projectionVersion(state.Projection))); err != nil {
		middle.Logger(r.Context(), app.logger()).Error("Render panel failed", zap.Error(err))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (app *AppContext) AddGenesHandler(w http.ResponseWriter, r *http.Request) {

	req, err := request.ParseGenesRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := app.Sessions.ForRequest(w, r)
	genes := c.Commit(req.Text)
	middle.Logger(r.Context(), app.logger()).Debug("Genes committed", zap.Strings("selection", genes))

	redirectHome(w, r)
}

func (app *AppContext) RemoveGeneHandler(w http.ResponseWriter, r *http.Request) {

	index, err := request.ParseIndex(r.PathValue("index"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := app.Sessions.ForRequest(w, r)
	c.Remove(index)

	redirectHome(w, r)
}

func (app *AppContext) OptionsHandler(w http.ResponseWriter, r *http.Request) {

	c := app.Sessions.ForRequest(w, r)

	opts, err := request.ParseOptionsRequest(r, c.Snapshot().Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	commitPending(c, r)
	if err := c.SetOptions(opts); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	redirectHome(w, r)
}

// HeatmapHandler runs the expression query. The outcome, including any
// failure, is part of the session state the page renders next.
func (app *AppContext) HeatmapHandler(w http.ResponseWriter, r *http.Request) {

	c := app.Sessions.ForRequest(w, r)
	commitPending(c, r)

	// A closed tab should not turn into a failed query.
	ctx := context.WithoutCancel(r.Context())
	if err := c.ViewHeatmap(ctx); err != nil {
		level := zap.DebugLevel
		if !errors.Is(err, controller.ErrBusy) {
			level = zap.InfoLevel
		}
		middle.Logger(r.Context(), app.logger()).Log(level, "View heatmap", zap.Error(err))
	}

	redirectHome(w, r)
}

func (app *AppContext) HeatmapImageHandler(w http.ResponseWriter, r *http.Request) {

	c := app.Sessions.ForRequest(w, r)
	state := c.Snapshot()
	if state.Projection == nil {
		http.Error(w, "No heatmap", http.StatusNotFound)
		return
	}

	data, err := heatmap.RenderPNG(*state.Projection, app.Heatmap)
	if errors.Is(err, heatmap.ErrEmptyProjection) {
		http.Error(w, "No heatmap", http.StatusNotFound)
		return
	}
	if err != nil {
		middle.Logger(r.Context(), app.logger()).Error("Render heatmap failed", zap.Error(err))
		http.Error(w, "Error rendering heatmap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func projectionVersion(p *model.HeatmapProjection) uint32 {
	if p == nil {
		return 0
	}
	h := fnv.New32a()
	fmt.Fprint(h, p.XLabels, p.YLabels, p.Matrix)
	return h.Sum32()
}
