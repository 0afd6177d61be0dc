package handler

import (
	"net/http"

	"github.com/yumyai/genepanel/pkg/middle"
)

func NewRouter(app *AppContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Panel
	mux.HandleFunc("GET /{$}", app.MainPage)
	mux.HandleFunc("POST /genes", app.AddGenesHandler)
	mux.HandleFunc("POST /genes/{index}/remove", app.RemoveGeneHandler)
	mux.HandleFunc("POST /options", app.OptionsHandler)
	mux.HandleFunc("POST /heatmap", app.HeatmapHandler)
	mux.HandleFunc("GET /heatmap.png", app.HeatmapImageHandler)

	// Downloads
	mux.HandleFunc("GET /download/fasta", app.DownloadFASTAHandler)
	mux.HandleFunc("GET /download/tsv", app.DownloadTSVHandler)

	// API routes
	mux.HandleFunc("GET /api/v1/health", app.HealthCheck)

	return mux
}

// Handler is the router wrapped in request id and logging middleware.
func (app *AppContext) Handler() http.Handler {
	return middle.Chain(NewRouter(app),
		middle.RequestIDMiddleware(app.logger()),
		middle.LoggingMiddleware(app.logger()),
	)
}
