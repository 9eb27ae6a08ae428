// Package config loads scrabbledb settings.
//
// Sources are layered, lowest precedence first:
//  1. defaults (New)
//  2. YAML file, from the --config flag or SCRABBLEDB_CONFIG
//  3. environment (prefix SCRABBLEDB_)
//  4. command-line flags (Overrides)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrConfiguration is returned for any unusable setting.
var ErrConfiguration = errors.New("configuration error")

// Backend names accepted in a store connection string.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// Store is the connection string: sqlite:<path>, bolt:<path> or memory:.
	Store string `koanf:"store"`

	// Table is the name of the games table. Empty means the table named by
	// the layout.
	Table string `koanf:"table"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsFile, when set, receives a Prometheus textfile after each command.
	MetricsFile string `koanf:"metrics_file"`

	// LayoutFile, when set, replaces the built-in CUE table layout.
	LayoutFile string `koanf:"layout_file"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		Store:    "sqlite:scrabble.db",
		LogLevel: "info",
	}
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := ParseStore(c.Store); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// StoreSpec is a parsed store connection string.
type StoreSpec struct {
	Backend string
	Path    string
}

// ParseStore splits a connection string of the form backend:path.
// The memory backend takes no path.
func ParseStore(conn string) (StoreSpec, error) {
	backend, path, ok := strings.Cut(conn, ":")
	if !ok {
		return StoreSpec{}, fmt.Errorf("store %q: want backend:path: %w", conn, ErrConfiguration)
	}

	spec := StoreSpec{Backend: strings.ToLower(backend), Path: path}
	switch spec.Backend {
	case BackendSQLite, BackendBolt:
		if path == "" {
			return StoreSpec{}, fmt.Errorf("store %q: %s needs a path: %w", conn, spec.Backend, ErrConfiguration)
		}
	case BackendMemory:
		if path != "" {
			return StoreSpec{}, fmt.Errorf("store %q: memory takes no path: %w", conn, ErrConfiguration)
		}
	default:
		return StoreSpec{}, fmt.Errorf("store %q: unknown backend %q: %w", conn, backend, ErrConfiguration)
	}
	return spec, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, ErrConfiguration)
	}
	return level, nil
}
