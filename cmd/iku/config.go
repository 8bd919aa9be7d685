package main

import (
	"github.com/BurntSushi/toml"

	"github.com/terraytm/iku/pkg/iku/config"
)

// loadConfig assembles the effective Config: defaults, then an optional
// TOML file (if configPath is non-empty), then explicit overrides already
// parsed from flags. Flags always win, matching the layered pattern
// described in SPEC_FULL.md §4.5.
func loadConfig(configPath string, overrides *config.FileConfig) (*config.Config, error) {
	cfg := config.Default()

	if configPath != "" {
		var fromFile config.FileConfig
		if _, err := toml.DecodeFile(configPath, &fromFile); err != nil {
			return nil, err
		}
		fromFile.ApplyTo(cfg)
	}

	overrides.ApplyTo(cfg)
	return cfg, nil
}
