package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir    string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`

	// Context allocation.
	CtxSize   int `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	BatchSize int `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	Threads   int `json:"threads" yaml:"threads" toml:"threads"`

	// Model loading. UseMMap is a pointer so a file that never mentions the
	// key cannot flip the enabled-by-default behavior; nil means unspecified.
	GPULayers int   `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	UseMMap   *bool `json:"use_mmap" yaml:"use_mmap" toml:"use_mmap"`
	UseMLock  bool  `json:"use_mlock" yaml:"use_mlock" toml:"use_mlock"`

	// Generation defaults.
	DefaultMaxTokens int `json:"default_max_tokens" yaml:"default_max_tokens" toml:"default_max_tokens"`
	StreamBuffer     int `json:"stream_buffer" yaml:"stream_buffer" toml:"stream_buffer"`

	// HTTP layer.
	LogLevel     string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods  []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders  []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`
}

// MMap returns the effective use_mmap setting; unspecified means enabled.
func (c Config) MMap() bool {
	if c.UseMMap == nil {
		return true
	}
	return *c.UseMMap
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
