package handler

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/middle"
	"github.com/yumyai/genepanel/pkg/model"
)

// responseSaver hands a payload to the browser as an attachment.
type responseSaver struct {
	w       http.ResponseWriter
	written bool
}

func (s *responseSaver) Save(ctx context.Context, blob *model.Blob) error {
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.w.Header().Set("Content-Type", contentType)
	s.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
	s.w.Header().Set("Content-Length", fmt.Sprint(len(blob.Data)))
	s.written = true
	_, err := s.w.Write(blob.Data)
	return err
}

func (app *AppContext) DownloadFASTAHandler(w http.ResponseWriter, r *http.Request) {
	app.serveDownload(w, r, (*controller.Controller).DownloadFASTA)
}

func (app *AppContext) DownloadTSVHandler(w http.ResponseWriter, r *http.Request) {
	app.serveDownload(w, r, (*controller.Controller).DownloadTSV)
}

type downloadFunc func(c *controller.Controller, ctx context.Context, saver controller.Saver) error

// serveDownload streams the payload on success. On failure the message is
// already in the session state, so the browser goes back to the page.
func (app *AppContext) serveDownload(w http.ResponseWriter, r *http.Request, download downloadFunc) {

	c := app.Sessions.ForRequest(w, r)
	commitPending(c, r)
	saver := &responseSaver{w: w}

	err := download(c, r.Context(), saver)
	if err == nil {
		return
	}

	middle.Logger(r.Context(), app.logger()).Info("Download failed", zap.Error(err))
	if !saver.written {
		redirectHome(w, r)
	}
}
