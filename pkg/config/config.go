// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yumyai/genepanel/pkg/colormap"
)

const (
	EnvPrefix      = "GENEPANEL"
	configName     = ".genepanel"
	DefaultAPIBase = "http://localhost:8000"
)

// Config is the root-level settings struct.
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Heatmap HeatmapConfig `mapstructure:"heatmap" yaml:"heatmap"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// APIConfig points the client at the gene API.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// ServerConfig is for the browser front end.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// most browser sessions kept at once
	SessionCap int `mapstructure:"session_cap" yaml:"session_cap"`
}

// BackendConfig is for the reference API server.
type BackendConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	DBPath      string   `mapstructure:"db_path" yaml:"db_path"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type HeatmapConfig struct {
	Colormap  string `mapstructure:"colormap" yaml:"colormap"`
	CellWidth int    `mapstructure:"cell_width" yaml:"cell_width"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultAPIBase,
		},
		Server: ServerConfig{
			Addr:       "0.0.0.0:8080",
			SessionCap: 1024,
		},
		Backend: BackendConfig{
			Addr:        "0.0.0.0:8000",
			DBPath:      "./data/db/genepanel.db",
			CORSOrigins: []string{"http://localhost:8080", "http://localhost:5173"},
		},
		Heatmap: HeatmapConfig{
			Colormap:  "viridis",
			CellWidth: 56,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	cfg.API.BaseURL = strings.TrimSpace(cfg.API.BaseURL)
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.SessionCap <= 0 {
		cfg.Server.SessionCap = defaults.Server.SessionCap
	}
	if cfg.Backend.Addr == "" {
		cfg.Backend.Addr = defaults.Backend.Addr
	}
	if cfg.Backend.DBPath == "" {
		cfg.Backend.DBPath = defaults.Backend.DBPath
	}
	if len(cfg.Backend.CORSOrigins) == 0 {
		cfg.Backend.CORSOrigins = defaults.Backend.CORSOrigins
	}
	if cfg.Heatmap.Colormap == "" {
		cfg.Heatmap.Colormap = defaults.Heatmap.Colormap
	}
	if cfg.Heatmap.CellWidth <= 0 {
		cfg.Heatmap.CellWidth = defaults.Heatmap.CellWidth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// NewViper returns a viper instance with defaults and environment bindings
// registered. cfgFile overrides the default ~/.genepanel.yaml; a missing
// default file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The API base also honours the unprefixed name used by older deployments.
	if err := v.BindEnv("api.base_url", EnvPrefix+"_API_BASE", EnvPrefix+"_API_BASE_URL", "API_BASE"); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers every key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_cap", d.Server.SessionCap)
	v.SetDefault("backend.addr", d.Backend.Addr)
	v.SetDefault("backend.db_path", d.Backend.DBPath)
	v.SetDefault("backend.cors_origins", d.Backend.CORSOrigins)
	v.SetDefault("heatmap.colormap", d.Heatmap.Colormap)
	v.SetDefault("heatmap.cell_width", d.Heatmap.CellWidth)
	v.SetDefault("log.level", d.Log.Level)
}

// Load decodes v into a Config and fills anything left empty.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	applyDefaults(&cfg)
	if !colormap.Valid(cfg.Heatmap.Colormap) {
		return nil, fmt.Errorf("heatmap.colormap %q is not one of %s",
			cfg.Heatmap.Colormap, strings.Join(colormap.Names(), ", "))
	}
	return &cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are skipped;
// it reports which files were loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// DefaultConfigFile is where `config set` writes when no file is in use.
func DefaultConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}
