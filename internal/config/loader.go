package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "fieldtoggle.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the -config flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Endpoint.BaseURL, "FIELDTOGGLE_BASE_URL")
	setString(&cfg.Endpoint.UpdatePath, "FIELDTOGGLE_UPDATE_PATH")
	setString(&cfg.Endpoint.ChangelistPath, "FIELDTOGGLE_CHANGELIST_PATH")
	setString(&cfg.Endpoint.SessionID, "FIELDTOGGLE_SESSION_ID")
	setDuration(&cfg.Endpoint.Timeout, "FIELDTOGGLE_TIMEOUT")
	setString(&cfg.Endpoint.UserAgent, "FIELDTOGGLE_USER_AGENT")
	setInt(&cfg.Endpoint.MaxConcurrent, "FIELDTOGGLE_MAX_CONCURRENT")

	setString(&cfg.Token.Source, "FIELDTOGGLE_TOKEN_SOURCE")
	setString(&cfg.Token.Value, "FIELDTOGGLE_TOKEN")
	setDuration(&cfg.Token.CacheTTL, "FIELDTOGGLE_TOKEN_CACHE_TTL")
	setInt64(&cfg.Token.CacheMaxBytes, "FIELDTOGGLE_TOKEN_CACHE_MAX_BYTES")

	setString(&cfg.View.CheckboxClass, "FIELDTOGGLE_CHECKBOX_CLASS")
	setDuration(&cfg.View.HighlightDelay, "FIELDTOGGLE_HIGHLIGHT_DELAY")
	setList(&cfg.View.Fields, "FIELDTOGGLE_FIELDS")

	setString(&cfg.Notifier.Provider, "FIELDTOGGLE_NOTIFIER")
	setBool(&cfg.Notifier.Blocking, "FIELDTOGGLE_NOTIFIER_BLOCKING")

	setString(&cfg.Logging.Level, "FIELDTOGGLE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "FIELDTOGGLE_LOG_SERVICE")
	setString(&cfg.Logging.Format, "FIELDTOGGLE_LOG_FORMAT")
	setBool(&cfg.Logging.Async, "FIELDTOGGLE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "FIELDTOGGLE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "FIELDTOGGLE_BREAKER_TIMEOUT")

	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Endpoint.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint.base_url must be an absolute URL, got %q", cfg.Endpoint.BaseURL)
	}
	if !strings.Contains(cfg.Endpoint.UpdatePath, "{id}") {
		return errors.New("endpoint.update_path must contain {id}")
	}
	if cfg.Endpoint.ChangelistPath == "" {
		return errors.New("endpoint.changelist_path is required")
	}
	if cfg.Endpoint.Timeout < 0 {
		return errors.New("endpoint.timeout must be >= 0")
	}
	if cfg.Endpoint.MaxConcurrent < 1 {
		return errors.New("endpoint.max_concurrent must be >= 1")
	}
	switch cfg.Token.Source {
	case "page":
	case "static":
		if cfg.Token.Value == "" {
			return errors.New("token.value is required when token.source is static")
		}
	default:
		return fmt.Errorf("token.source must be page or static, got %q", cfg.Token.Source)
	}
	if cfg.Token.CacheMaxBytes < 1 {
		return errors.New("token.cache_max_bytes must be >= 1")
	}
	if cfg.View.CheckboxClass == "" {
		return errors.New("view.checkbox_class is required")
	}
	if cfg.View.HighlightDelay <= 0 {
		return errors.New("view.highlight_delay must be > 0")
	}
	if cfg.Notifier.Provider == "" {
		return errors.New("notifier.provider is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setList reads a comma-separated list; blank items are dropped.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
