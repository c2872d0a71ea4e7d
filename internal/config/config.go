// Package config holds the healing subsystem's configuration surface.
// The credential toggle is explicit: components receive the resolved state at
// construction and nothing consults the environment at heal time.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultVisionModel = "gpt-4o"
	DefaultReportsDir  = ".graft"
)

// Config is the full configuration surface. Timeouts are carried in
// milliseconds, the unit the healing events report in.
type Config struct {
	APIKey     string `yaml:"api_key" json:"api_key"`
	APIKeyFile string `yaml:"api_key_file" json:"api_key_file"`

	BaseURL     string `yaml:"base_url" json:"base_url"`
	Model       string `yaml:"model" json:"model"`
	VisionModel string `yaml:"vision_model" json:"vision_model"`

	ReportsDir string `yaml:"reports_dir" json:"reports_dir"`

	RequestTimeoutMS  int `yaml:"request_timeout_ms" json:"request_timeout_ms"`
	ActionTimeoutMS   int `yaml:"action_timeout_ms" json:"action_timeout_ms"`
	ValidateTimeoutMS int `yaml:"validate_timeout_ms" json:"validate_timeout_ms"`
	MaxMarkupBytes    int `yaml:"max_markup_bytes" json:"max_markup_bytes"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// Default returns a Config with every field at its documented default and no
// credential, i.e. healing disabled.
func Default() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		Model:             DefaultModel,
		VisionModel:       DefaultVisionModel,
		ReportsDir:        DefaultReportsDir,
		RequestTimeoutMS:  60_000,
		ActionTimeoutMS:   5_000,
		ValidateTimeoutMS: 2_000,
		MaxMarkupBytes:    80_000,
		LogFormat:         "text",
	}
}

// Load reads a config file (YAML or JSON, detected by extension or content)
// and fills unset fields with defaults. A missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes config bytes. ext is the format hint (".yaml", ".json");
// empty means detect from the first non-whitespace character.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()

	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	case ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	d := Default()
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = d.VisionModel
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = d.ReportsDir
	}
	if cfg.RequestTimeoutMS <= 0 {
		cfg.RequestTimeoutMS = d.RequestTimeoutMS
	}
	if cfg.ActionTimeoutMS <= 0 {
		cfg.ActionTimeoutMS = d.ActionTimeoutMS
	}
	if cfg.ValidateTimeoutMS <= 0 {
		cfg.ValidateTimeoutMS = d.ValidateTimeoutMS
	}
	if cfg.MaxMarkupBytes <= 0 {
		cfg.MaxMarkupBytes = d.MaxMarkupBytes
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = d.LogFormat
	}
	return cfg, nil
}

// ResolvedAPIKey returns the credential: APIKey when set, otherwise the first
// line of APIKeyFile. Empty means healing stays disabled.
func (c *Config) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyFile == "" {
		return ""
	}
	f, err := os.Open(c.APIKeyFile)
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}

// Enabled reports whether a credential is present. Absence degrades every
// wrapped action to plain pass-through.
func (c *Config) Enabled() bool { return c.ResolvedAPIKey() != "" }

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c *Config) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutMS) * time.Millisecond
}

func (c *Config) ValidateTimeout() time.Duration {
	return time.Duration(c.ValidateTimeoutMS) * time.Millisecond
}
