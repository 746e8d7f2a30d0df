// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package config loads the settings of the fsh command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	AppName    = "fsh"
	EnvPrefix  = "FSH"
	configName = "config"
)

// Config holds the shell settings.
type Config struct {
	// Prompt is printed before reading each line on a terminal.
	Prompt string `mapstructure:"prompt" toml:"prompt"`
	// LogLevel is one of debug, info, warn, error or fatal.
	LogLevel string `mapstructure:"log_level" toml:"log_level"`
	// VarsFile is where shell variables are loaded from at startup and
	// saved to at exit. Empty disables persistence.
	VarsFile string `mapstructure:"vars_file" toml:"vars_file"`
	// InheritEnv copies the process environment into the shell variables.
	InheritEnv bool `mapstructure:"inherit_env" toml:"inherit_env"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Prompt:     "> ",
		LogLevel:   "warn",
		InheritEnv: true,
	}
}

// Dir returns the directory holding the configuration file, following
// $XDG_CONFIG_HOME on Unix-like systems.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not find config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Load reads the configuration. If path is empty, config.toml in [Dir] is
// used if it exists. Environment variables prefixed with FSH_, such as
// FSH_LOG_LEVEL, override the file.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("prompt", def.Prompt)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("vars_file", def.VarsFile)
	v.SetDefault("inherit_env", def.InheritEnv)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not load config: %w", err)
		}
	} else if dir, err := Dir(); err == nil {
		v.SetConfigName(configName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("could not load config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config: %w", err)
	}
	return cfg, nil
}

// TOML encodes the configuration in the format of the configuration file.
func (c Config) TOML() ([]byte, error) {
	return toml.Marshal(c)
}
