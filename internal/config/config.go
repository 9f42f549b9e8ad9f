// Package config provides hierarchical configuration loading for fieldtoggle.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the field toggle client.
type Config struct {
	Endpoint  Endpoint  `yaml:"endpoint"`
	Token     Token     `yaml:"token"`
	View      View      `yaml:"view"`
	Notifier  Notifier  `yaml:"notifier"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Endpoint describes the admin site that owns the records.
type Endpoint struct {
	BaseURL        string        `yaml:"base_url"`
	UpdatePath     string        `yaml:"update_path"`     // "{id}" is replaced by the record id
	ChangelistPath string        `yaml:"changelist_path"` // page carrying the controls and the token
	SessionID      string        `yaml:"session_id"`      // existing admin session cookie, if any
	Timeout        time.Duration `yaml:"timeout"`         // 0 = no timeout
	UserAgent      string        `yaml:"user_agent"`
	MaxConcurrent  int           `yaml:"max_concurrent"` // requests in flight at once
}

// Token selects where the anti-forgery token comes from.
type Token struct {
	Source        string        `yaml:"source"` // "page" | "static"
	Value         string        `yaml:"value"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	CacheMaxBytes int64         `yaml:"cache_max_bytes"`
}

// View holds settings for the rendered list of controls.
type View struct {
	CheckboxClass  string        `yaml:"checkbox_class"`
	HighlightDelay time.Duration `yaml:"highlight_delay"`
	Fields         []string      `yaml:"fields"` // empty = every inline-edit field
}

// Notifier selects how failures are surfaced.
type Notifier struct {
	Provider string `yaml:"provider"`
	Blocking bool   `yaml:"blocking"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Format  string `yaml:"format"` // "json" | "text"
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for the update endpoint.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"` // empty = disabled
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Endpoint: Endpoint{
			BaseURL:        "http://localhost:8000",
			UpdatePath:     "/admin/players/player/{id}/update-field/",
			ChangelistPath: "/admin/players/player/",
			Timeout:        30 * time.Second,
			UserAgent:      "fieldtoggle/1.0",
			MaxConcurrent:  4,
		},
		Token: Token{
			Source:        "page",
			CacheTTL:      5 * time.Minute,
			CacheMaxBytes: 1 << 20,
		},
		View: View{
			CheckboxClass:  "inline-edit-checkbox",
			HighlightDelay: 500 * time.Millisecond,
		},
		Notifier: Notifier{
			Provider: "terminal",
			Blocking: true,
		},
		Logging: Logging{
			Level:   "info",
			Service: "fieldtoggle",
			Format:  "text",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Telemetry: Telemetry{
			ServiceName: "fieldtoggle",
		},
	}
}
