// Package config loads .intentspec.yml and environment overrides.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is read from the working directory when no path is given.
const DefaultFileName = ".intentspec.yml"

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Extract ExtractConfig `yaml:"extract"`
	Compile CompileConfig `yaml:"compile"`
	Serve   ServeConfig   `yaml:"serve"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type ExtractConfig struct {
	// Mode is wrap (continuation lines join the open tag) or line.
	Mode string `yaml:"mode" validate:"oneof=wrap line"`
}

type CompileConfig struct {
	Dir       string   `yaml:"dir"`
	Out       string   `yaml:"out"`
	Workers   int      `yaml:"workers" validate:"gte=1,lte=256"`
	Format    string   `yaml:"format" validate:"oneof=json yaml yml markdown md html"`
	Extension string   `yaml:"extension" validate:"required,startswith=."`
	Exclude   []string `yaml:"exclude" validate:"dive,required"`
}

type ServeConfig struct {
	Addr         string `yaml:"addr" validate:"required"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" validate:"gte=1024"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Extract: ExtractConfig{Mode: "wrap"},
		Compile: CompileConfig{
			Dir:       ".",
			Workers:   runtime.NumCPU(),
			Format:    "json",
			Extension: ".sol",
			Exclude:   []string{".git", "node_modules"},
		},
		Serve: ServeConfig{Addr: ":8090", MaxBodyBytes: 1 << 20},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path falls back to DefaultFileName in the
// working directory, which may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, errors.Errorf("read config: %w", err)
	}

	cfg.Log.Level = envOr("INTENTSPEC_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("INTENTSPEC_LOG_FORMAT", cfg.Log.Format)
	cfg.Serve.Addr = envOr("INTENTSPEC_ADDR", cfg.Serve.Addr)
	cfg.Compile.Workers = envInt("INTENTSPEC_WORKERS", cfg.Compile.Workers)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Errorf("invalid config: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
