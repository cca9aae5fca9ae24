package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/bookdesk/internal/view"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Backend BackendConfig     `yaml:"backend"`
	View    ViewConfig        `yaml:"view"`
	Notify  NotifyConfig      `yaml:"notify"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.View.Validate(); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	return c.Notify.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

var httpScheme = regexp.MustCompile(`^https?://`)

// BackendConfig points at the remote books collection.
type BackendConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 disables
	Burst     int           `yaml:"burst"`
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL,
			validation.Required,
			is.URL,
			validation.Match(httpScheme).Error("must start with http:// or https://"),
		),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
	)
}

// ViewConfig holds projection defaults.
type ViewConfig struct {
	PageSize int `yaml:"page_size"`
}

// Validate validates the view configuration.
func (c *ViewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// NotifyConfig tunes the notification stream.
type NotifyConfig struct {
	InvalidateThrottle time.Duration `yaml:"invalidate_throttle"`
}

// Validate validates the notify configuration.
func (c *NotifyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.InvalidateThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:4000",
			Timeout:   15 * time.Second,
			RateLimit: 10,
			Burst:     5,
		},
		View: ViewConfig{
			PageSize: view.DefaultPageSize,
		},
		Notify: NotifyConfig{
			InvalidateThrottle: time.Second,
		},
	}
}
