// Package cmd is for command line interactions with the genepanel application
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/logger"
	"github.com/yumyai/genepanel/pkg/config"
)

// Version information (set at build time)
var version = "0.1.0"

var (
	cfgFile string

	// v holds every setting after flags, env and the config file are merged.
	v   *viper.Viper
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "genepanel",
	Short: "Select genes, download their sequences and expression values, and view them as a heatmap",
	Long: `genepanel works on a selection of up to 10 genes.

It downloads protein sequences as FASTA, expression values as TSV, and draws
the expression values as a heatmap, either from the browser ("genepanel serve")
or from the command line ("genepanel fetch", "genepanel heatmap"). The gene API
it talks to can be run locally with "genepanel backend".`,
	Version:      version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = initConfig

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.genepanel.yaml)")
	rootCmd.PersistentFlags().String("api-base", "", "base URL of the gene API (env GENEPANEL_API_BASE or API_BASE)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig(cmd *cobra.Command, args []string) error {

	// Try load env
	dotenv, err := config.LoadDotEnv()
	if err != nil {
		return err
	}

	v, err = config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-base")); err != nil {
		return err
	}
	if err := v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	if err := logger.InitLogger(level); err != nil {
		return err
	}

	if len(dotenv) == 0 {
		logger.Debug("No .env found, using local environment")
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("Config loaded", zap.String("file", used))
	}
	return nil
}
