package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger based on configuration. JSON
// output carries source locations for log aggregation; the pretty form used
// in development stays terse.
func NewLogger(cfg *Config) *slog.Logger {
	env := "development"
	if cfg != nil {
		env = cfg.AppEnv
	}
	if cfg != nil && cfg.LogFormat == "json" {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
		return slog.New(handler).With(slog.String("env", env))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
