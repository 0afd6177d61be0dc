package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/logger"
	"github.com/yumyai/genepanel/pkg/client"
	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/handler"
	"github.com/yumyai/genepanel/pkg/heatmap"
	"github.com/yumyai/genepanel/pkg/session"
)

// serveCmd runs the browser front end
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gene panel in the browser",
	Long: `Serve the gene panel: a page to pick genes, download their sequences and
expression values and view the expression heatmap. Each browser session gets
its own selection; the oldest sessions are dropped beyond server.session_cap.`,
	Args: cobra.NoArgs,
}

func init() {
	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	}
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	serveCmd.Flags().Int("session-cap", 0, "maximum number of browser sessions kept (default server.session_cap)")
}

func runServe(ctx context.Context) error {

	if err := v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")); err != nil {
		return err
	}
	if err := v.BindPFlag("server.session_cap", serveCmd.Flags().Lookup("session-cap")); err != nil {
		return err
	}
	addr := v.GetString("server.addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	sessionCap := v.GetInt("server.session_cap")
	if sessionCap <= 0 {
		sessionCap = cfg.Server.SessionCap
	}

	api := client.New(cfg.API.BaseURL, client.WithLogger(logger.L()))

	sessions, err := session.NewManager(sessionCap, func() *controller.Controller {
		return controller.New(api, controller.WithLogger(logger.L()))
	})
	if err != nil {
		return err
	}

	app := &handler.AppContext{
		Sessions: sessions,
		Heatmap: heatmap.RenderOptions{
			Colormap:  cfg.Heatmap.Colormap,
			CellWidth: cfg.Heatmap.CellWidth,
		},
		APIBase: api.BaseURL(),
		Logger:  logger.L(),
	}

	logger.Info("Start:", zap.String("Version", version))
	logger.Info("Using gene API", zap.String("API_BASE", api.BaseURL()))

	return listenAndServe(ctx, addr, app.Handler())
}

// listenAndServe runs the server until it fails or the process is interrupted.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {

	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}
