// Package config loads phrasekit settings from defaults, the .phrasekit.yaml
// file, PHRASEKIT_* environment variables and command-line flags, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "PHRASEKIT"

// Config is the resolved configuration for a translation run.
type Config struct {
	// Provider is the chat-completion provider ID (openai, google, groq, ...).
	Provider string `mapstructure:"provider"`
	// Model overrides the provider's default model.
	Model string `mapstructure:"model"`
	// BaseURL overrides the provider's API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `mapstructure:"proxy"`
	// Timeout is the per-request timeout (0 = provider default).
	Timeout time.Duration `mapstructure:"timeout"`
	// TargetLanguage is the default output language.
	TargetLanguage string `mapstructure:"target_language"`
	// Tone is the default register ("formal", "informal").
	Tone string `mapstructure:"tone"`
	// MaxLength is the default per-sentence character limit (0 = none).
	MaxLength int `mapstructure:"max_length"`
	// SystemPrompt replaces the built-in system prompt.
	SystemPrompt string `mapstructure:"system_prompt"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Provider: "openai",
		Tone:     "formal",
	}
}

// flagNames maps config keys to the command-line flags that override them.
var flagNames = map[string]string{
	"provider":        "provider",
	"model":           "model",
	"base_url":        "base-url",
	"proxy":           "proxy",
	"timeout":         "timeout",
	"target_language": "to",
	"tone":            "tone",
	"max_length":      "max-length",
	"system_prompt":   "prompt",
	"verbose":         "verbose",
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// Dir is searched for .phrasekit.yaml (default ".").
	Dir string
	// File is an explicit config file; it must exist when set.
	File string
	// Flags are bound to their config keys when present.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. A missing config file is not an error
// unless it was named explicitly.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("proxy", d.Proxy)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("target_language", d.TargetLanguage)
	v.SetDefault("tone", d.Tone)
	v.SetDefault("max_length", d.MaxLength)
	v.SetDefault("system_prompt", d.SystemPrompt)
	v.SetDefault("verbose", d.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagNames {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	file := opts.File
	if file == "" {
		file = findConfigFile(opts.Dir)
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", file)
			}
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.File = file

	if cfg.MaxLength < 0 {
		return nil, fmt.Errorf("max_length must not be negative, got %d", cfg.MaxLength)
	}
	return &cfg, nil
}

// findConfigFile returns the first existing config file: dir/.phrasekit.yaml,
// then $XDG_CONFIG_HOME/phrasekit/config.yaml.
func findConfigFile(dir string) string {
	if dir == "" {
		dir = "."
	}
	candidates := []string{filepath.Join(dir, FileName)}
	if global, err := GlobalFilePath(); err == nil {
		candidates = append(candidates, global)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// GlobalFilePath returns the per-user config file path.
func GlobalFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, "phrasekit", "config.yaml"), nil
}
