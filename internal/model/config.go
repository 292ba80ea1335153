package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete claimview configuration
type Config struct {
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	View        ViewConfig        `yaml:"view" mapstructure:"view"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects and configures the backend data source
type SourceConfig struct {
	Kind              string             `yaml:"kind" mapstructure:"kind"` // "dir" or "http"
	Dir               string             `yaml:"dir" mapstructure:"dir"`
	BaseURL           string             `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration      `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string             `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64              `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int                `yaml:"burst" mapstructure:"burst"`
	EndpointRates     map[string]float64 `yaml:"endpoint_rates,omitempty" mapstructure:"endpoint_rates"` // e.g. history: 2
	HTTPProxy         string             `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string             `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures response caching in front of the source
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ViewConfig holds display defaults
type ViewConfig struct {
	MaxAttentionItems int    `yaml:"max_attention_items" mapstructure:"max_attention_items"`
	ExpandedGroups    int    `yaml:"expanded_groups" mapstructure:"expanded_groups"` // Fact groups expanded initially
	Currency          string `yaml:"currency" mapstructure:"currency"`               // Used when a claim has none
}

// ConcurrencyConfig bounds concurrent work
type ConcurrencyConfig struct {
	FetchWorkers  int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
	ExportWorkers int `yaml:"export_workers" mapstructure:"export_workers"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "console" or "json"
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:              "dir",
			Dir:               "./claims",
			Timeout:           15 * time.Second,
			UserAgent:         "claimview/0.3 (+https://github.com/ppiankov/claimview)",
			MaxBodyBytes:      4_000_000,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 5 * time.Minute,
			DiskDir:   defaultCacheDir(),
			DiskTTL:   time.Hour,
		},
		View: ViewConfig{
			MaxAttentionItems: 8,
			ExpandedGroups:    3,
			Currency:          "CHF",
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers:  4,
			ExportWorkers: runtime.NumCPU(),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "claimview")
	}
	return filepath.Join(dir, "claimview")
}
