package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"kiln/internal/logger"
)

// Config represents the kiln configuration file
// (~/.config/kiln/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	ModelConfigDir string `yaml:"model_config_dir"`

	MaxNewTokens *int64 `yaml:"max_new_tokens"`
	MaxLength    *int64 `yaml:"max_length"`
	MinNewTokens *int64 `yaml:"min_new_tokens"`
	Seed         *int64 `yaml:"seed"`
	HiddenSize   *int64 `yaml:"hidden"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kiln", "config.yaml")
}

// loadFileConfig reads the config file if present. A missing file is
// normal; a malformed one is reported and skipped.
func loadFileConfig(log logger.Logger) Config {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Warn("ignoring malformed config file", "path", path, "error", err)
		return Config{}
	}
	return cfg
}

// applyFileConfig applies file defaults to flag variables when the
// corresponding CLI flag was not explicitly set.
func applyFileConfig(c *cli.Command, cfg Config) {
	if cfg.ModelConfigDir != "" && !c.IsSet("model-config") {
		modelConfigDir = cfg.ModelConfigDir
	}
	if cfg.MaxNewTokens != nil && !c.IsSet("max-new-tokens") {
		maxNewTokens = *cfg.MaxNewTokens
	}
	if cfg.MaxLength != nil && !c.IsSet("max-length") {
		maxLength = *cfg.MaxLength
	}
	if cfg.MinNewTokens != nil && !c.IsSet("min-new-tokens") {
		minNewTokens = *cfg.MinNewTokens
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
	if cfg.HiddenSize != nil && !c.IsSet("hidden") {
		hiddenSize = *cfg.HiddenSize
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}
