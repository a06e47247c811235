package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/ragcore/config"
	"github.com/poiesic/ragcore/core"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// setup loads the configuration, applies global flag overrides and
// installs the process logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
		cfg.Store.InMemory = false
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	levelStr := strings.ToLower(cfg.Level)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", cfg.Format)
	}
}

// parseFilters turns repeated key=value flags into a filter set.
// Values of the same key accumulate.
func parseFilters(values []string) (core.FilterSet, error) {
	filters := core.FilterSet{}
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", v)
		}
		filters[key] = append(filters[key], strings.TrimSpace(value))
	}
	return filters, nil
}

// parseMetadata turns key=value flags into piece metadata.
// A repeated key keeps its last value.
func parseMetadata(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", v)
		}
		metadata[key] = strings.TrimSpace(value)
	}
	return metadata, nil
}
