// Package config loads cheatsheet configuration from defaults, an optional
// YAML file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

// Config is the top-level configuration.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
	Tutor   TutorConfig  `yaml:"tutor"`
	Quiz    QuizConfig   `yaml:"quiz"`
	LLM     llm.Config   `yaml:"llm"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// TutorConfig configures the decide-next policy.
type TutorConfig struct {
	RemediationThreshold float64 `yaml:"remediation_threshold"`
}

// QuizConfig configures quiz generation.
type QuizConfig struct {
	DefaultCount int `yaml:"default_count"`
	Concurrency  int `yaml:"concurrency"`
}

// Default returns the built-in configuration. DataDir is left empty and
// resolved by Load.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:5001",
			MaxUploadBytes:  16 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   LogConfig{Level: "info"},
		Tutor: TutorConfig{RemediationThreshold: tutor.DefaultRemediationThreshold},
		Quiz:  QuizConfig{DefaultCount: 10, Concurrency: 4},
		LLM:   llm.DefaultConfig(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/cheatsheet/config.yaml, or the
// ~/.config equivalent.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cheatsheet", "config.yaml"), nil
}

// Load builds the configuration. path names the YAML file; when empty,
// CHEATSHEET_CONFIG and then DefaultPath are tried, and a missing default
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p := os.Getenv("CHEATSHEET_CONFIG"); p != "" {
			path, explicit = p, true
		} else if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		err := cfg.mergeFile(path)
		switch {
		case err == nil:
			slog.Debug("loaded config file", "path", path)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.DataDir == "" {
		dir, err := store.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	if !cfg.LLM.HasKey() {
		if discovered, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = discovered
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses a YAML file over the defaults without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	// ${VAR} references are expanded before parsing.
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHEATSHEET_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("CHEATSHEET_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CHEATSHEET_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHEATSHEET_REMEDIATION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Tutor.RemediationThreshold = f
		} else {
			slog.Warn("ignoring invalid CHEATSHEET_REMEDIATION_THRESHOLD", "value", v)
		}
	}
	llm.ApplyEnv(&c.LLM)
}

// Validate checks value ranges. A missing LLM key is not an error here:
// commands that need the model check it themselves.
func (c *Config) Validate() error {
	if c.Tutor.RemediationThreshold < 0 || c.Tutor.RemediationThreshold > 1 {
		return fmt.Errorf("tutor.remediation_threshold must be within [0, 1], got %v", c.Tutor.RemediationThreshold)
	}
	if c.Quiz.DefaultCount < 1 {
		return fmt.Errorf("quiz.default_count must be positive, got %d", c.Quiz.DefaultCount)
	}
	if c.Quiz.Concurrency < 1 {
		return fmt.Errorf("quiz.concurrency must be positive, got %d", c.Quiz.Concurrency)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
