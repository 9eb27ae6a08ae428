package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SCRABBLEDB_"

// Overrides holds values set explicitly on the command line. Empty
// fields leave the layered value alone.
type Overrides struct {
	ConfigFile  string
	Store       string
	Table       string
	LogLevel    string
	MetricsFile string
	LayoutFile  string
}

// Load builds a Config by layering defaults, optional file, env vars and
// overrides, then validates it.
func Load(o Overrides) (*Config, error) {
	k := koanf.New(".")

	path := o.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %v: %w", path, err, ErrConfiguration)
		}
	}

	// SCRABBLEDB_LOG_LEVEL -> log_level
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %v: %w", err, ErrConfiguration)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode: %v: %w", err, ErrConfiguration)
	}

	apply(&cfg.Store, o.Store)
	apply(&cfg.Table, o.Table)
	apply(&cfg.LogLevel, o.LogLevel)
	apply(&cfg.MetricsFile, o.MetricsFile)
	apply(&cfg.LayoutFile, o.LayoutFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func apply(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
