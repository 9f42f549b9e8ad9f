package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Endpoint.BaseURL != "http://localhost:8000" {
		t.Errorf("expected base url http://localhost:8000, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.View.HighlightDelay != 500*time.Millisecond {
		t.Errorf("expected highlight delay 500ms, got %v", cfg.View.HighlightDelay)
	}
	if cfg.View.CheckboxClass != "inline-edit-checkbox" {
		t.Errorf("expected checkbox class inline-edit-checkbox, got %s", cfg.View.CheckboxClass)
	}
	if cfg.Endpoint.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Endpoint.Timeout)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
endpoint:
  base_url: "https://club.example.com"
  session_id: "abc123"
token:
  source: "static"
  value: "tok"
view:
  fields: ["attended_try_out", "draftable"]
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Endpoint.BaseURL != "https://club.example.com" {
		t.Errorf("expected overridden base url, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Endpoint.SessionID != "abc123" {
		t.Errorf("expected session abc123, got %s", cfg.Endpoint.SessionID)
	}
	if cfg.Token.Source != "static" || cfg.Token.Value != "tok" {
		t.Errorf("expected static token tok, got %s/%s", cfg.Token.Source, cfg.Token.Value)
	}
	if len(cfg.View.Fields) != 2 || cfg.View.Fields[1] != "draftable" {
		t.Errorf("expected two fields, got %v", cfg.View.Fields)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Endpoint.UpdatePath != "/admin/players/player/{id}/update-field/" {
		t.Errorf("expected default update path, got %s", cfg.Endpoint.UpdatePath)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("endpoint: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("FIELDTOGGLE_BASE_URL", "http://admin:9000")
	t.Setenv("FIELDTOGGLE_TOKEN", "secret")
	t.Setenv("FIELDTOGGLE_HIGHLIGHT_DELAY", "250ms")
	t.Setenv("FIELDTOGGLE_FIELDS", "draftable, ,attended_try_out")
	t.Setenv("FIELDTOGGLE_LOG_LEVEL", "warn")
	t.Setenv("FIELDTOGGLE_BREAKER_MAX_FAILURES", "3")
	t.Setenv("FIELDTOGGLE_BREAKER_TIMEOUT", "1m")
	t.Setenv("FIELDTOGGLE_NOTIFIER_BLOCKING", "false")

	loadEnv(&cfg)

	if cfg.Endpoint.BaseURL != "http://admin:9000" {
		t.Errorf("expected base url http://admin:9000, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Token.Value != "secret" {
		t.Errorf("expected token secret, got %s", cfg.Token.Value)
	}
	if cfg.View.HighlightDelay != 250*time.Millisecond {
		t.Errorf("expected highlight delay 250ms, got %v", cfg.View.HighlightDelay)
	}
	if len(cfg.View.Fields) != 2 || cfg.View.Fields[0] != "draftable" || cfg.View.Fields[1] != "attended_try_out" {
		t.Errorf("unexpected fields %v", cfg.View.Fields)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.MaxFailures != 3 {
		t.Errorf("expected max failures 3, got %d", cfg.Breaker.MaxFailures)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Notifier.Blocking {
		t.Error("expected blocking notifier disabled")
	}
}

func TestEnvOverrideIgnoresMalformed(t *testing.T) {
	cfg := Defaults()

	t.Setenv("FIELDTOGGLE_HIGHLIGHT_DELAY", "soon")
	t.Setenv("FIELDTOGGLE_BREAKER_MAX_FAILURES", "many")

	loadEnv(&cfg)

	if cfg.View.HighlightDelay != 500*time.Millisecond {
		t.Errorf("expected default highlight delay, got %v", cfg.View.HighlightDelay)
	}
	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("expected default max failures, got %d", cfg.Breaker.MaxFailures)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "relative base url",
			modify: func(c *Config) { c.Endpoint.BaseURL = "/admin" },
			errMsg: `endpoint.base_url must be an absolute URL, got "/admin"`,
		},
		{
			name:   "update path without id",
			modify: func(c *Config) { c.Endpoint.UpdatePath = "/admin/update/" },
			errMsg: "endpoint.update_path must contain {id}",
		},
		{
			name:   "empty changelist path",
			modify: func(c *Config) { c.Endpoint.ChangelistPath = "" },
			errMsg: "endpoint.changelist_path is required",
		},
		{
			name:   "negative timeout",
			modify: func(c *Config) { c.Endpoint.Timeout = -time.Second },
			errMsg: "endpoint.timeout must be >= 0",
		},
		{
			name:   "zero max concurrent",
			modify: func(c *Config) { c.Endpoint.MaxConcurrent = 0 },
			errMsg: "endpoint.max_concurrent must be >= 1",
		},
		{
			name:   "unknown token source",
			modify: func(c *Config) { c.Token.Source = "cookie" },
			errMsg: `token.source must be page or static, got "cookie"`,
		},
		{
			name:   "static token without value",
			modify: func(c *Config) { c.Token.Source = "static" },
			errMsg: "token.value is required when token.source is static",
		},
		{
			name:   "zero cache size",
			modify: func(c *Config) { c.Token.CacheMaxBytes = 0 },
			errMsg: "token.cache_max_bytes must be >= 1",
		},
		{
			name:   "empty checkbox class",
			modify: func(c *Config) { c.View.CheckboxClass = "" },
			errMsg: "view.checkbox_class is required",
		},
		{
			name:   "zero highlight delay",
			modify: func(c *Config) { c.View.HighlightDelay = 0 },
			errMsg: "view.highlight_delay must be > 0",
		},
		{
			name:   "empty notifier",
			modify: func(c *Config) { c.Notifier.Provider = "" },
			errMsg: "notifier.provider is required",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromAppliesHierarchy(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "fieldtoggle.yaml")
	content := `
endpoint:
  base_url: "http://from-yaml:8000"
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FIELDTOGGLE_LOG_LEVEL", "error")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint.BaseURL != "http://from-yaml:8000" {
		t.Errorf("expected yaml base url, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env to win over yaml, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	t.Setenv("FIELDTOGGLE_TOKEN_SOURCE", "static")
	if _, err := LoadFrom("/nonexistent/path.yaml"); err == nil {
		t.Error("expected validation error for static source without value")
	}
}
