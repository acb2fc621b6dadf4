// Package config loads telemetryd configuration from YAML files and
// applies defaults for everything a file leaves unset.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/telemetry-ocr/internal/extract"
)

// Config is the top-level telemetryd configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	OCR         OCRConfig         `yaml:"ocr"`
	Extraction  ExtractionConfig  `yaml:"extraction"`
	Performance PerformanceConfig `yaml:"performance"`
	Resilience  ResilienceConfig  `yaml:"resilience"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OCRConfig selects and configures the recognition engine.
type OCRConfig struct {
	Engine    string   `yaml:"engine"`
	Languages []string `yaml:"languages"`

	// FieldMappings maps display labels to output key names. Kept as a
	// raw node so the file's label order survives parsing; resolution
	// order between competing labels follows configuration order.
	FieldMappings yaml.Node `yaml:"field_mappings"`
}

// ExtractionConfig tunes label matching behavior.
type ExtractionConfig struct {
	// AbsoluteValues strips the sign from extracted values. Defaults to
	// true: telemetry displays render magnitudes, a leading minus is
	// almost always an OCR artifact.
	AbsoluteValues *bool `yaml:"absolute_values"`

	// PositionalOrder decides which of two ambiguous label occurrences
	// is the max: "max_first" (default) or "min_first".
	PositionalOrder string `yaml:"positional_order"`
}

// PerformanceConfig bounds resource usage.
type PerformanceConfig struct {
	MaxImageSize    int           `yaml:"max_image_size"` // longest frame edge in pixels
	OCRTimeout      time.Duration `yaml:"ocr_timeout"`
	Workers         int           `yaml:"workers"`
	EnableCache     *bool         `yaml:"enable_cache"`
	CacheDir        string        `yaml:"cache_dir"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`
	CacheMaxDiskMB  int64         `yaml:"cache_max_disk_mb"`
}

// ResilienceConfig tunes the circuit breaker and retry policy around
// the recognition engine.
type ResilienceConfig struct {
	FailureThreshold  int           `yaml:"failure_threshold"`
	RecoveryTimeout   time.Duration `yaml:"recovery_timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Load reads a YAML configuration file and applies defaults. A missing
// file is not an error: the defaults alone make a runnable config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.OCR.Engine == "" {
		c.OCR.Engine = "tesseract"
	}
	if c.Extraction.AbsoluteValues == nil {
		t := true
		c.Extraction.AbsoluteValues = &t
	}
	if c.Extraction.PositionalOrder == "" {
		c.Extraction.PositionalOrder = string(extract.MaxFirst)
	}
	if c.Performance.MaxImageSize <= 0 {
		c.Performance.MaxImageSize = 1920
	}
	if c.Performance.OCRTimeout <= 0 {
		c.Performance.OCRTimeout = 30 * time.Second
	}
	if c.Performance.Workers <= 0 {
		c.Performance.Workers = 2
	}
	if c.Performance.EnableCache == nil {
		t := true
		c.Performance.EnableCache = &t
	}
	if c.Performance.CacheDir == "" {
		c.Performance.CacheDir = "ocr_cache"
	}
	if c.Performance.CacheTTL <= 0 {
		c.Performance.CacheTTL = time.Hour
	}
	if c.Performance.CacheMaxEntries <= 0 {
		c.Performance.CacheMaxEntries = 100
	}
	if c.Performance.CacheMaxDiskMB <= 0 {
		c.Performance.CacheMaxDiskMB = 50
	}
	if c.Resilience.FailureThreshold <= 0 {
		c.Resilience.FailureThreshold = 5
	}
	if c.Resilience.RecoveryTimeout <= 0 {
		c.Resilience.RecoveryTimeout = 60 * time.Second
	}
	if c.Resilience.MaxAttempts <= 0 {
		c.Resilience.MaxAttempts = 2
	}
	if c.Resilience.BaseDelay <= 0 {
		c.Resilience.BaseDelay = 100 * time.Millisecond
	}
	if c.Resilience.BackoffMultiplier <= 0 {
		c.Resilience.BackoffMultiplier = 2
	}
}

// Mapping resolves the configured field mappings into an ordered
// extract.Mapping. Malformed entries are logged and skipped rather than
// failing the whole configuration. With no field_mappings configured the
// built-in telemetry display mapping applies.
func (c *Config) Mapping(logger *slog.Logger) *extract.Mapping {
	if logger == nil {
		logger = slog.Default()
	}

	node := c.OCR.FieldMappings
	if node.Kind == 0 || len(node.Content) == 0 {
		return defaultMapping()
	}
	if node.Kind != yaml.MappingNode {
		logger.Warn("field_mappings is not a mapping, using defaults")
		return defaultMapping()
	}

	m := &extract.Mapping{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		var label string
		if err := keyNode.Decode(&label); err != nil {
			logger.Warn("skipping field mapping with unreadable label", "line", keyNode.Line, "error", err)
			continue
		}

		var raw any
		if err := valNode.Decode(&raw); err != nil {
			logger.Warn("skipping field mapping with unreadable value", "label", label, "error", err)
			continue
		}
		keys, err := extract.KeysFromValue(raw)
		if err != nil {
			logger.Warn("skipping malformed field mapping", "label", label, "error", err)
			continue
		}
		if err := m.Add(label, keys); err != nil {
			logger.Warn("skipping field mapping", "label", label, "error", err)
		}
	}
	return m
}

// defaultMapping covers the stock telemetry display layout.
func defaultMapping() *extract.Mapping {
	m := &extract.Mapping{}
	for _, f := range []struct {
		label string
		keys  []string
	}{
		{"平均速度(rpm)", []string{"average_speed"}},
		{"最高速度(rpm)", []string{"max_speed"}},
		{"最低速度(rpm)", []string{"min_speed"}},
		{"速度偏差(rpm)", []string{"speed_deviation"}},
		{"位置波动(最大mm)", []string{"position_fluctuation_max"}},
		{"位置波动(最小mm)", []string{"position_fluctuation_min"}},
	} {
		_ = m.Add(f.label, f.keys)
	}
	return m
}
