package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig is the runtime configuration of the analysis server. Values
// come from defaults, then the YAML file named by A11Y_CONFIG, then the
// environment.
type ServerConfig struct {
	Port             string        `yaml:"port" validate:"required,numeric"`
	LogLevel         string        `yaml:"logLevel" validate:"oneof=debug info warn error"`
	CacheBackend     string        `yaml:"cacheBackend" validate:"oneof=memory redis"`
	RedisURL         string        `yaml:"redisURL" validate:"required_if=CacheBackend redis"`
	CacheMaxEntries  int           `yaml:"cacheMaxEntries" validate:"gt=0"`
	ReportCacheTTL   time.Duration `yaml:"reportCacheTTL" validate:"gte=0"`
	ARIAVersion      string        `yaml:"ariaVersion" validate:"oneof=1.2 1.3"`
	MaxDocumentBytes int64         `yaml:"maxDocumentBytes" validate:"gt=0,lte=67108864"`
	SanitizeHTML     bool          `yaml:"sanitizeHTML"`
	TraceStdout      bool          `yaml:"traceStdout"`
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
}

var (
	serverConfig     *ServerConfig
	serverConfigOnce sync.Once

	validate = validator.New()
)

// GetServerConfig returns the process configuration, loading it on first use.
// An invalid configuration is logged and replaced by the defaults.
func GetServerConfig() *ServerConfig {
	serverConfigOnce.Do(func() {
		cfg, err := LoadServerConfig(os.Getenv("A11Y_CONFIG"), os.LookupEnv)
		if err != nil {
			slog.Warn("invalid server config, using defaults", "error", err)
			cfg = DefaultServerConfig()
		}
		serverConfig = cfg
	})
	return serverConfig
}

// DefaultServerConfig returns the built-in defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:             "8080",
		LogLevel:         "info",
		CacheBackend:     "memory",
		CacheMaxEntries:  512,
		ReportCacheTTL:   10 * time.Minute,
		ARIAVersion:      "1.2",
		MaxDocumentBytes: 5 << 20,
		ShutdownTimeout:  10 * time.Second,
	}
}

// LoadServerConfig builds a configuration from the YAML file at path (if
// not empty) and the variables returned by lookup.
func LoadServerConfig(path string, lookup func(string) (string, bool)) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		slog.Debug("loaded server config file", "path", path)
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct constraints.
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

func applyEnv(cfg *ServerConfig, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("CACHE_BACKEND", &cfg.CacheBackend)
	str("REDIS_URL", &cfg.RedisURL)
	str("ARIA_VERSION", &cfg.ARIAVersion)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if v, ok := lookup("MAX_DOCUMENT_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_DOCUMENT_BYTES: %w", err)
		}
		cfg.MaxDocumentBytes = n
	}
	if v, ok := lookup("CACHE_MAX_ENTRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_MAX_ENTRIES: %w", err)
		}
		cfg.CacheMaxEntries = n
	}
	if v, ok := lookup("REPORT_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REPORT_CACHE_TTL: %w", err)
		}
		cfg.ReportCacheTTL = d
	}
	if v, ok := lookup("SANITIZE_HTML"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SANITIZE_HTML: %w", err)
		}
		cfg.SanitizeHTML = b
	}
	if v, ok := lookup("TRACE_STDOUT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRACE_STDOUT: %w", err)
		}
		cfg.TraceStdout = b
	}
	return nil
}
