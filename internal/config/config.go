package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/cache"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
)

// Config is the root configuration structure for the transparency terminal.
type Config struct {
	General  GeneralConfig       `yaml:"general"`
	Server   ServerConfig        `yaml:"server"`
	Provider provider.HTTPConfig `yaml:"provider"`
	Cache    cache.RedisConfig   `yaml:"cache"`
	Summary  SummaryConfig       `yaml:"summary"`
	Live     LiveConfig          `yaml:"live"`
}

type GeneralConfig struct {
	InstanceID  string `yaml:"instance_id"`
	Environment string `yaml:"environment"` // production|staging|development
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|text
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type SummaryConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type LiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	WindowSeconds int64         `yaml:"window_seconds"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.General.InstanceID == "" {
		cfg.General.InstanceID = "ttt-1"
	}
	if cfg.General.Environment == "" {
		cfg.General.Environment = "development"
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}

	defaults := provider.DefaultHTTPConfig()
	if cfg.Provider.RPCURL == "" {
		cfg.Provider.RPCURL = defaults.RPCURL
	}
	if cfg.Provider.EnhancedAPIURL == "" {
		cfg.Provider.EnhancedAPIURL = defaults.EnhancedAPIURL
	}
	if cfg.Provider.WalletAPIURL == "" {
		cfg.Provider.WalletAPIURL = defaults.WalletAPIURL
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = defaults.Timeout
	}

	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = cache.DefaultRedisConfig().Addr
	}

	if cfg.Summary.BaseURL == "" {
		cfg.Summary.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Summary.Model == "" {
		cfg.Summary.Model = "gpt-4o-mini"
	}

	if cfg.Live.SweepInterval == 0 {
		cfg.Live.SweepInterval = 30 * time.Second
	}
	if cfg.Live.WindowSeconds == 0 {
		cfg.Live.WindowSeconds = 300
	}
}
