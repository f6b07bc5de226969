package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds PITKEEPER_* overrides. Nil fields are unset.
type EnvConfig struct {
	DBPath        *string  `env:"PITKEEPER_DB"`
	Watch         *bool    `env:"PITKEEPER_WATCH"`
	LogLevel      *string  `env:"PITKEEPER_LOG_LEVEL"`
	LogPath       *string  `env:"PITKEEPER_LOG"`
	CatalogPath   *string  `env:"PITKEEPER_CATALOG"`
	SuggestWeight *float64 `env:"PITKEEPER_SUGGEST_WEIGHT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Merge layers the environment over the file config and returns the result.
func (e EnvConfig) Merge(fc FileConfig) FileConfig {
	if e.DBPath != nil {
		fc.Storage.Path = e.DBPath
	}
	if e.Watch != nil {
		fc.Storage.Watch = e.Watch
	}
	if e.LogLevel != nil {
		fc.Log.Level = e.LogLevel
	}
	if e.LogPath != nil {
		fc.Log.Path = e.LogPath
	}
	if e.CatalogPath != nil {
		fc.Catalog.Path = e.CatalogPath
	}
	if e.SuggestWeight != nil {
		fc.Suggest.Weight = e.SuggestWeight
	}
	return fc
}

// Load reads the TOML file at path and applies environment overrides.
func Load(path string) (FileConfig, error) {
	fc, err := LoadConfig(path)
	if err != nil {
		return FileConfig{}, err
	}
	var e EnvConfig
	if err := ParseEnv(&e); err != nil {
		return FileConfig{}, err
	}
	return e.Merge(fc), nil
}
