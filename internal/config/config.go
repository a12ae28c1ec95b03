// Package config loads application configuration from a YAML file with
// environment overrides. Chunking tiers are runtime-tunable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the adaptive chunk size tiers, in characters.
const (
	DefaultSmallChunkSize  = 300
	DefaultMediumChunkSize = 500
	DefaultLargeChunkSize  = 800
	DefaultChunkOverlap    = 100
)

// DefaultMaxContentSize caps how much of a single source document is
// processed (10MB). Larger inputs are truncated, not rejected.
const DefaultMaxContentSize = 10 * 1024 * 1024

// Config holds all application settings.
type Config struct {
	Qdrant struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"qdrant"`
	Embedding struct {
		Model     string `yaml:"model"`
		Dimension int    `yaml:"dimension"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"embedding"`
	Ollama struct {
		BaseURL      string `yaml:"base_url"`
		DefaultModel string `yaml:"default_model"`
	} `yaml:"ollama"`
	Chunking struct {
		SmallSize  int `yaml:"small_size"`
		MediumSize int `yaml:"medium_size"`
		LargeSize  int `yaml:"large_size"`
		Overlap    int `yaml:"overlap"`
	} `yaml:"chunking"`
	Retrieval struct {
		TopK int `yaml:"top_k"`
	} `yaml:"retrieval"`
	Fetch struct {
		MaxContentSize int `yaml:"max_content_size"`
		RequestTimeout int `yaml:"request_timeout_seconds"`
		MaxSitemapURLs int `yaml:"max_sitemap_urls"`
	} `yaml:"fetch"`
}

// Load reads configuration from $RAGD_CONFIG (or ~/.ragd/config.yaml) and
// applies environment overrides. A missing file yields defaults.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("RAGD_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".ragd", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Qdrant.Host = "localhost"
	cfg.Qdrant.Port = 6334
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Embedding.Dimension = 1536
	cfg.Embedding.BatchSize = 500
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.DefaultModel = "llama3:8b"
	cfg.Chunking.SmallSize = DefaultSmallChunkSize
	cfg.Chunking.MediumSize = DefaultMediumChunkSize
	cfg.Chunking.LargeSize = DefaultLargeChunkSize
	cfg.Chunking.Overlap = DefaultChunkOverlap
	cfg.Retrieval.TopK = 5
	cfg.Fetch.MaxContentSize = DefaultMaxContentSize
	cfg.Fetch.RequestTimeout = 30
	cfg.Fetch.MaxSitemapURLs = 50

	return cfg
}

// Save writes the configuration to ~/.ragd/config.yaml.
func (c *Config) Save() error {
	dir := filepath.Join(os.Getenv("HOME"), ".ragd")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}

// RequestTimeout returns the fetch timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.RequestTimeout) * time.Second
}

func (c *Config) applyEnv() {
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		c.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Qdrant.Port = port
		}
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.DefaultModel = v
	}
}
