// Package config loads the scanner configuration.
//
// Sources are applied in order: built-in defaults, a .env file, an optional
// YAML file, then environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teslashibe/go-scanner/internal/log"
	"github.com/teslashibe/go-scanner/pkg/camera"
	"github.com/teslashibe/go-scanner/pkg/decode"
	"github.com/teslashibe/go-scanner/pkg/overlay"
	"gopkg.in/yaml.v3"
)

// Default server configuration.
const (
	DefaultPort = 8080
	DefaultHost = ""
)

// Server is the HTTP listener configuration.
type Server struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port" validate:"min=1,max=65535"`
	AccessLog bool   `yaml:"access_log"`
	CORS      bool   `yaml:"cors"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Log is the logging configuration.
type Log struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// Options converts to logger options.
func (l Log) Options() log.Options {
	return log.Options{
		Level:      l.Level,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxAgeDays: l.MaxAgeDays,
		MaxBackups: l.MaxBackups,
	}
}

// Config is the full scanner configuration.
type Config struct {
	Server  Server        `yaml:"server"`
	Camera  camera.Config `yaml:"camera"`
	Decoder decode.Config `yaml:"decoder"`
	Overlay overlay.Style `yaml:"overlay"`
	Log     Log           `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:  Server{Host: DefaultHost, Port: DefaultPort},
		Camera:  camera.DefaultConfig(),
		Decoder: decode.DefaultConfig(),
		Overlay: overlay.DefaultStyle(),
		Log:     Log{Level: "info", MaxSizeMB: 50, MaxAgeDays: 14, MaxBackups: 3},
	}
}

// Load builds the configuration. path may be empty; a missing .env is
// ignored but a missing YAML file named explicitly is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, Validate(cfg)
}

// Validate checks struct tags and the camera limits.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if errs := cfg.Camera.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SCANNER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SCANNER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCANNER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("SCANNER_DEVICE"); v != "" {
		cfg.Camera.Device = v
	}
	if v := os.Getenv("SCANNER_PRESET"); v != "" {
		preset := camera.GetPreset(v)
		if preset == nil {
			return fmt.Errorf("SCANNER_PRESET: unknown preset %q", v)
		}
		device := cfg.Camera.Device
		cfg.Camera = *preset
		cfg.Camera.Device = device
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}
