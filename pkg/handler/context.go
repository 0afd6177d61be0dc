package handler

// DI for all handlers.

import (
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/pkg/heatmap"
	"github.com/yumyai/genepanel/pkg/session"
)

type AppContext struct {
	Sessions *session.Manager
	Heatmap  heatmap.RenderOptions
	// APIBase is reported by the health endpoint.
	APIBase string
	Logger  *zap.Logger
}

func (app *AppContext) logger() *zap.Logger {
	if app.Logger == nil {
		return zap.NewNop()
	}
	return app.Logger
}
