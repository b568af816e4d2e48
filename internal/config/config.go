// Package config loads gateway configuration from config.yaml overlaid by
// DOCGATE_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/docsense/gateway/internal/ratelimit"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Downstream DownstreamConfig `koanf:"downstream"`
	Upload     UploadConfig     `koanf:"upload"`
	Limits     LimitsConfig     `koanf:"limits"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type DownstreamConfig struct {
	// BaseURL is the fixed internal address of the processing service.
	BaseURL string `koanf:"base_url"`
	// Timeout is a duration string like "120s".
	Timeout string `koanf:"timeout"`
}

type UploadConfig struct {
	// StagingDir is where validated uploads are written before forwarding.
	StagingDir string `koanf:"staging_dir"`
	// MaxBytes is the upload size ceiling enforced at the transport layer.
	MaxBytes int64 `koanf:"max_bytes"`
}

type LimitsConfig struct {
	Global    LimitConfig `koanf:"global"`
	Upload    LimitConfig `koanf:"upload"`
	Ask       LimitConfig `koanf:"ask"`
	Summarize LimitConfig `koanf:"summarize"`
	Compare   LimitConfig `koanf:"compare"`
}

type LimitConfig struct {
	// Window is a duration string like "1m".
	Window string `koanf:"window"`
	// Max is the request ceiling per window per client key.
	Max int `koanf:"max"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use defaults and env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config
	if err := k.Load(env.Provider("DOCGATE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DOCGATE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if _, err := cfg.DownstreamTimeout(); err != nil {
		return nil, err
	}
	if _, err := cfg.LimiterSettings(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":             8080,
		"downstream.base_url":     "http://127.0.0.1:5000",
		"downstream.timeout":      "120s",
		"upload.staging_dir":      "./data/staging",
		"upload.max_bytes":        20 << 20, // 20 MiB
		"limits.global.window":    "1m",
		"limits.global.max":       100,
		"limits.upload.window":    "1m",
		"limits.upload.max":       5,
		"limits.ask.window":       "1m",
		"limits.ask.max":          20,
		"limits.summarize.window": "1m",
		"limits.summarize.max":    10,
		"limits.compare.window":   "1m",
		"limits.compare.max":      10,
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}
}

// DownstreamTimeout parses the configured downstream timeout.
func (c *Config) DownstreamTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Downstream.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid downstream.timeout: %w", err)
	}
	return d, nil
}

// LimiterSettings converts the configured limits into limiter settings.
func (c *Config) LimiterSettings() (ratelimit.Limits, error) {
	var out ratelimit.Limits
	for _, entry := range []struct {
		name string
		in   LimitConfig
		dst  *ratelimit.Limit
	}{
		{"global", c.Limits.Global, &out.Global},
		{"upload", c.Limits.Upload, &out.Upload},
		{"ask", c.Limits.Ask, &out.Ask},
		{"summarize", c.Limits.Summarize, &out.Summarize},
		{"compare", c.Limits.Compare, &out.Compare},
	} {
		window, err := time.ParseDuration(entry.in.Window)
		if err != nil {
			return out, fmt.Errorf("invalid limits.%s.window: %w", entry.name, err)
		}
		if window <= 0 {
			return out, fmt.Errorf("limits.%s.window must be positive", entry.name)
		}
		if entry.in.Max <= 0 {
			return out, fmt.Errorf("limits.%s.max must be positive", entry.name)
		}
		*entry.dst = ratelimit.Limit{Window: window, Max: entry.in.Max}
	}
	return out, nil
}
