package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/logger"
	"github.com/yumyai/genepanel/pkg/api"
	"github.com/yumyai/genepanel/pkg/db"
)

// backendCmd runs the reference gene API
var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Serve the gene API from a local database",
	Long: `Serve the gene API (sequence and expression lookups) from the SQLite
database filled by "genepanel load".`,
	Args: cobra.NoArgs,
}

func init() {
	backendCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runBackend(cmd.Context())
	}
	rootCmd.AddCommand(backendCmd)

	backendCmd.Flags().String("addr", "", "listen address (default backend.addr)")
	backendCmd.Flags().String("db", "", "path to the gene database (default backend.db_path)")
}

func runBackend(ctx context.Context) error {

	if err := v.BindPFlag("backend.addr", backendCmd.Flags().Lookup("addr")); err != nil {
		return err
	}
	if err := v.BindPFlag("backend.db_path", backendCmd.Flags().Lookup("db")); err != nil {
		return err
	}
	addr := firstNonEmpty(v.GetString("backend.addr"), cfg.Backend.Addr)
	dbPath := firstNonEmpty(v.GetString("backend.db_path"), cfg.Backend.DBPath)

	store, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("Open database on", zap.String("DB_LOC", dbPath))

	router := api.NewRouter(api.RouterConfig{
		Store:       store,
		CORSOrigins: cfg.Backend.CORSOrigins,
		Logger:      logger.L(),
	})
	return listenAndServe(ctx, addr, router)
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
