package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yumyai/genepanel/internal/util"
	"github.com/yumyai/genepanel/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage genepanel configuration",
	Long:  "Show, get, or set configuration values. Config is stored in ~/.genepanel.yaml unless --config is given.",
	Example: `  genepanel config                                   # show all config
  genepanel config set api.base_url http://genes:8000  # point at another API
  genepanel config get heatmap.colormap                # get a value`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(v.AllSettings())
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val := v.Get(args[0])
		if val == nil {
			return fmt.Errorf("key %q is not set", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !v.IsSet(key) {
			return fmt.Errorf("unknown config key %q", key)
		}

		// Reject values the next run could not load.
		v.Set(key, parseConfigValue(value))
		if _, err := config.Load(v); err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = v.ConfigFileUsed()
		}
		if path == "" {
			p, err := config.DefaultConfigFile()
			if err != nil {
				return err
			}
			path = p
		}

		// Only what the file already holds plus the new key is written back,
		// not defaults or environment.
		fv := viper.New()
		fv.SetConfigFile(path)
		fv.SetConfigType("yaml")
		if util.FileExists(path) {
			if err := fv.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
		}
		fv.Set(key, parseConfigValue(value))

		if err := fv.WriteConfigAs(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// parseConfigValue keeps numbers as numbers so the file stays typed.
func parseConfigValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch s {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	return s
}
