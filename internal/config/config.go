// Package config loads bowlcheck settings from a JSON or YAML file and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/bowlcheck/internal/ocr"
	"github.com/ironsheep/bowlcheck/internal/remote"
	"github.com/ironsheep/bowlcheck/internal/segment"
	"github.com/ironsheep/bowlcheck/internal/vision"
	"github.com/ironsheep/bowlcheck/internal/visual"
)

// DefaultPath is read when no config path is given.
const DefaultPath = "bowlcheck.json"

// Duration is a time.Duration written as a string ("500ms", "4s") in config
// files. Plain numbers are read as seconds.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("duration %s: want a string like \"2s\" or seconds", b)
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// SegmentConfig tunes receipt/bowl segmentation.
type SegmentConfig struct {
	MinConfidence   float64 `json:"min_confidence" yaml:"min_confidence"`
	FallbackRatio   float64 `json:"fallback_ratio" yaml:"fallback_ratio"`
	WorkSize        int     `json:"work_size" yaml:"work_size"`
	BrightThreshold uint8   `json:"bright_threshold" yaml:"bright_threshold"`
	MinAreaFraction float64 `json:"min_area_fraction" yaml:"min_area_fraction"`
	MaxAreaFraction float64 `json:"max_area_fraction" yaml:"max_area_fraction"`
}

// ReceiptConfig tunes receipt fuzzy matching.
type ReceiptConfig struct {
	AcceptThreshold float64 `json:"accept_threshold" yaml:"accept_threshold"`
}

// VisualConfig tunes the color heuristic.
type VisualConfig struct {
	MinCoverage   float64 `json:"min_coverage" yaml:"min_coverage"`
	ConfidenceCap float64 `json:"confidence_cap" yaml:"confidence_cap"`
	CoverageGain  float64 `json:"coverage_gain" yaml:"coverage_gain"`
	WorkSize      int     `json:"work_size" yaml:"work_size"`
}

// VisionConfig selects the vision classification service.
type VisionConfig struct {
	// Enabled defaults to true; the service is still skipped without an API key.
	Enabled         *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	APIKey          string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL         string  `json:"base_url" yaml:"base_url"`
	Model           string  `json:"model" yaml:"model"`
	MaxTokens       int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature     float32 `json:"temperature" yaml:"temperature"`
	BiasWithReceipt bool    `json:"bias_with_receipt" yaml:"bias_with_receipt"`
}

// OCRConfig selects Tesseract language data and preprocessing scales.
type OCRConfig struct {
	Language       string    `json:"language" yaml:"language"`
	TessdataPrefix string    `json:"tessdata_prefix" yaml:"tessdata_prefix"`
	Scales         []float64 `json:"scales" yaml:"scales"`
}

// RetryConfig bounds calls to external services.
type RetryConfig struct {
	Attempts        int      `json:"attempts" yaml:"attempts"`
	InitialInterval Duration `json:"initial_interval" yaml:"initial_interval"`
	MaxInterval     Duration `json:"max_interval" yaml:"max_interval"`
	CallTimeout     Duration `json:"call_timeout" yaml:"call_timeout"`
}

// BatchConfig bounds batch processing.
type BatchConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// ServerConfig tunes the MCP server.
type ServerConfig struct {
	ReportTTL Duration `json:"report_ttl" yaml:"report_ttl"`
}

// Config is the complete bowlcheck configuration.
type Config struct {
	LogLevel     string `json:"log_level" yaml:"log_level"`
	RegistryPath string `json:"registry_path" yaml:"registry_path"`

	Segment SegmentConfig `json:"segment" yaml:"segment"`
	Receipt ReceiptConfig `json:"receipt" yaml:"receipt"`
	Visual  VisualConfig  `json:"visual" yaml:"visual"`
	Vision  VisionConfig  `json:"vision" yaml:"vision"`
	OCR     OCRConfig     `json:"ocr" yaml:"ocr"`
	Retry   RetryConfig   `json:"retry" yaml:"retry"`
	Batch   BatchConfig   `json:"batch" yaml:"batch"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	sd := segment.DefaultOptions()
	if c.Segment.MinConfidence <= 0 {
		c.Segment.MinConfidence = sd.MinConfidence
	}
	if c.Segment.FallbackRatio <= 0 || c.Segment.FallbackRatio >= 1 {
		c.Segment.FallbackRatio = sd.FallbackRatio
	}
	if c.Segment.WorkSize <= 0 {
		c.Segment.WorkSize = sd.WorkSize
	}
	if c.Segment.BrightThreshold == 0 {
		c.Segment.BrightThreshold = sd.BrightThreshold
	}
	if c.Segment.MinAreaFraction <= 0 {
		c.Segment.MinAreaFraction = sd.MinAreaFraction
	}
	if c.Segment.MaxAreaFraction <= 0 || c.Segment.MaxAreaFraction > 1 {
		c.Segment.MaxAreaFraction = sd.MaxAreaFraction
	}

	if c.Receipt.AcceptThreshold <= 0 || c.Receipt.AcceptThreshold > 100 {
		c.Receipt.AcceptThreshold = 80
	}

	if c.Visual.MinCoverage <= 0 {
		c.Visual.MinCoverage = 1
	}
	if c.Visual.ConfidenceCap <= 0 || c.Visual.ConfidenceCap > 100 {
		c.Visual.ConfidenceCap = 95
	}
	if c.Visual.CoverageGain <= 0 {
		c.Visual.CoverageGain = 10
	}
	if c.Visual.WorkSize <= 0 {
		c.Visual.WorkSize = 256
	}

	if c.Vision.Enabled == nil {
		enabled := true
		c.Vision.Enabled = &enabled
	}
	if c.Vision.Model == "" {
		c.Vision.Model = "gpt-4o"
	}
	if c.Vision.MaxTokens <= 0 {
		c.Vision.MaxTokens = 1000
	}
	if c.Vision.Temperature <= 0 {
		c.Vision.Temperature = 0.1
	}

	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if len(c.OCR.Scales) == 0 {
		c.OCR.Scales = []float64{1, 1.5, 2}
	}

	rd := remote.DefaultPolicy
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = rd.Attempts
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = Duration(rd.InitialInterval)
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = Duration(rd.MaxInterval)
	}
	if c.Retry.CallTimeout <= 0 {
		c.Retry.CallTimeout = Duration(rd.CallTimeout)
	}

	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 4
	}
	if c.Server.ReportTTL <= 0 {
		c.Server.ReportTTL = Duration(10 * time.Minute)
	}
}

// Load reads the config at path (DefaultPath when empty), applies
// environment overrides and defaults. A missing file is not an error.
//
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.ApplyDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.Vision.APIKey = v
	}
	if v := getenv("BOWLCHECK_VISION_API_KEY"); v != "" {
		c.Vision.APIKey = v
	}
	if v := getenv("BOWLCHECK_VISION_BASE_URL"); v != "" {
		c.Vision.BaseURL = v
	}
	if v := getenv("BOWLCHECK_VISION_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := getenv("BOWLCHECK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("BOWLCHECK_TESSDATA_PREFIX"); v != "" {
		c.OCR.TessdataPrefix = v
	}
}

// VisionEnabled reports whether the vision service should be used.
func (c Config) VisionEnabled() bool {
	return (c.Vision.Enabled == nil || *c.Vision.Enabled) && strings.TrimSpace(c.Vision.APIKey) != ""
}

// SegmentOptions converts the segment section.
func (c Config) SegmentOptions() segment.Options {
	o := segment.DefaultOptions()
	o.MinConfidence = c.Segment.MinConfidence
	o.FallbackRatio = c.Segment.FallbackRatio
	o.WorkSize = c.Segment.WorkSize
	o.BrightThreshold = c.Segment.BrightThreshold
	o.MinAreaFraction = c.Segment.MinAreaFraction
	o.MaxAreaFraction = c.Segment.MaxAreaFraction
	return o
}

// RetryPolicy converts the retry section.
func (c Config) RetryPolicy() remote.Policy {
	return remote.Policy{
		Attempts:        c.Retry.Attempts,
		InitialInterval: c.Retry.InitialInterval.D(),
		MaxInterval:     c.Retry.MaxInterval.D(),
		CallTimeout:     c.Retry.CallTimeout.D(),
	}
}

// VisualOptions converts the visual section. The classifier is left nil.
func (c Config) VisualOptions() visual.Options {
	return visual.Options{
		MinCoverage: c.Visual.MinCoverage,
		Gain:        c.Visual.CoverageGain,
		Cap:         c.Visual.ConfidenceCap,
		WorkSize:    c.Visual.WorkSize,
		Retry:       c.RetryPolicy(),
	}
}

// VisionClient converts the vision section.
func (c Config) VisionClient() vision.Config {
	return vision.Config{
		APIKey:      c.Vision.APIKey,
		BaseURL:     c.Vision.BaseURL,
		Model:       c.Vision.Model,
		MaxTokens:   c.Vision.MaxTokens,
		Temperature: c.Vision.Temperature,
	}
}

// OCRClient converts the ocr section.
func (c Config) OCRClient() ocr.Config {
	return ocr.Config{
		Language:       c.OCR.Language,
		TessdataPrefix: c.OCR.TessdataPrefix,
		Scales:         c.OCR.Scales,
	}
}
