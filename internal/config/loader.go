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

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
	"nightingale/internal/common/fsutil"
)

// Config holds runtime parameters for the service. Load starts from
// Default, so keys absent from the file keep their defaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" validate:"oneof=debug info warn error off"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" validate:"oneof=console json"`

	DefaultModel  string `json:"default_model" yaml:"default_model" toml:"default_model" validate:"required"`
	DefaultDriver string `json:"default_driver" yaml:"default_driver" toml:"default_driver" validate:"oneof=llama llamaserver ollama gemini echo"`
	// Models replaces the built-in catalog when non-empty.
	Models []catalog.ModelDescriptor `json:"models" yaml:"models" toml:"models"`
	// ModelsDir, when set, is scanned for *.gguf files served by the llama driver.
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Preload lists model ids loaded at startup.
	Preload []string `json:"preload" yaml:"preload" toml:"preload"`

	MaxQueueDepth    int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" validate:"gte=0"`
	MaxWaitMS        int `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms" validate:"gte=0"`
	RequestTimeoutMS int `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms" validate:"gte=0"`

	LlamaServerURL string `json:"llama_server_url" yaml:"llama_server_url" toml:"llama_server_url" validate:"omitempty,url"`
	LlamaCtx       int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx" validate:"gte=0"`
	LlamaThreads   int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads" validate:"gte=0"`
	OllamaURL      string `json:"ollama_url" yaml:"ollama_url" toml:"ollama_url" validate:"omitempty,url"`
	GeminiModel    string `json:"gemini_model" yaml:"gemini_model" toml:"gemini_model"`

	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" validate:"gte=0"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods  []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders  []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`
	// AllowedHosts enables the trusted-host check when non-empty.
	AllowedHosts []string `json:"allowed_hosts" yaml:"allowed_hosts" toml:"allowed_hosts"`

	RateLimit RateLimit `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`

	// Secrets come from the environment only.
	HFToken      string `json:"-" yaml:"-" toml:"-"`
	GeminiAPIKey string `json:"-" yaml:"-" toml:"-"`
}

// RateLimit configures the Redis fixed-window limiter. It is disabled when
// RedisAddr is empty.
type RateLimit struct {
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" toml:"redis_addr"`
	RedisPassword string `json:"-" yaml:"-" toml:"-"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" toml:"redis_db" validate:"gte=0"`
	Requests      int    `json:"requests" yaml:"requests" toml:"requests" validate:"gte=0"`
	WindowSeconds int    `json:"window_seconds" yaml:"window_seconds" toml:"window_seconds" validate:"gte=0"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:             ":8000",
		LogLevel:         "info",
		LogFormat:        "console",
		DefaultModel:     catalog.DefaultModelID,
		DefaultDriver:    backend.KindLlamaServer,
		MaxQueueDepth:    32,
		MaxWaitMS:        30000,
		RequestTimeoutMS: 120000,
		LlamaServerURL:   "http://127.0.0.1:8080",
		OllamaURL:        "http://127.0.0.1:11434",
		GeminiModel:      "gemini-2.0-flash",
		MaxBodyBytes:     10 << 20,
		CORSOrigins:      []string{"*"},
		CORSMethods:      []string{"GET", "POST", "OPTIONS"},
		CORSHeaders:      []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		RateLimit:        RateLimit{Requests: 60, WindowSeconds: 60},
	}
}

// Load reads a configuration file based on its extension over Default.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through
// getenv (os.Getenv in production).
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("NIGHTINGALE_ADDR", &c.Addr)
	str("NIGHTINGALE_LOG_LEVEL", &c.LogLevel)
	str("NIGHTINGALE_LOG_FORMAT", &c.LogFormat)
	str("NIGHTINGALE_DEFAULT_MODEL", &c.DefaultModel)
	str("NIGHTINGALE_DEFAULT_DRIVER", &c.DefaultDriver)
	str("NIGHTINGALE_MODELS_DIR", &c.ModelsDir)
	str("NIGHTINGALE_LLAMA_SERVER_URL", &c.LlamaServerURL)
	str("NIGHTINGALE_OLLAMA_URL", &c.OllamaURL)
	str("NIGHTINGALE_REDIS_ADDR", &c.RateLimit.RedisAddr)
	str("NIGHTINGALE_REDIS_PASSWORD", &c.RateLimit.RedisPassword)
	str("HF_TOKEN", &c.HFToken)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	if v := strings.TrimSpace(getenv("NIGHTINGALE_MAX_QUEUE_DEPTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NIGHTINGALE_MAX_QUEUE_DEPTH: %w", err)
		}
		c.MaxQueueDepth = n
	}
	return nil
}

// Validate checks field constraints and reports the first violation.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s=%v violates %s", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Catalog builds the model catalog: the configured models (or the built-in
// list) followed by any GGUF files found in ModelsDir.
func (c Config) Catalog() (*catalog.Catalog, error) {
	descs := c.Models
	if len(descs) == 0 {
		descs = catalog.DefaultDescriptors()
	}
	if c.ModelsDir != "" {
		scanned, err := catalog.ScanGGUF(c.ModelsDir)
		if err != nil {
			return nil, err
		}
		descs = append(append([]catalog.ModelDescriptor(nil), descs...), scanned...)
	}
	cat, err := catalog.New(descs...)
	if err != nil {
		return nil, err
	}
	if _, ok := cat.Resolve(c.DefaultModel); !ok {
		return nil, fmt.Errorf("config: default model %q is not in the catalog", c.DefaultModel)
	}
	return cat, nil
}

// BackendOptions maps the driver settings onto backend.Options.
func (c Config) BackendOptions() backend.Options {
	return backend.Options{
		AccessToken:    c.HFToken,
		LlamaServerURL: c.LlamaServerURL,
		LlamaCtx:       c.LlamaCtx,
		LlamaThreads:   c.LlamaThreads,
		OllamaURL:      c.OllamaURL,
		GeminiAPIKey:   c.GeminiAPIKey,
		GeminiModel:    c.GeminiModel,
		RequestTimeout: time.Duration(c.RequestTimeoutMS) * time.Millisecond,
	}
}

// MaxWait is MaxWaitMS as a duration.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitMS) * time.Millisecond }

// RateLimitWindow is RateLimit.WindowSeconds as a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}
