package internal

import "log/slog"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	level      *slog.LevelVar
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath enables hot reload of the log level and page size from the
// file at path.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithLevelVar shares a log level variable with the caller so reloads are
// visible to loggers created outside Run.
func WithLevelVar(level *slog.LevelVar) Option {
	return func(a *application) {
		a.level = level
	}
}
