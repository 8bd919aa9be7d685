// Package config defines the process-wide configuration for an iku run.
// Unlike the original Python implementation (a module-level singleton) and
// the teacher's own pkg/configuration (loaded into package-level defaults
// and merged via mapstructure), Config here is an immutable value assembled
// once at program entry and passed by reference into the Indexer and
// Synchronizer constructors — see SPEC_FULL.md §4.5 and §9.
package config

import "time"

// DefaultBufferSize is the recommended default streaming chunk size: 1 MiB.
const DefaultBufferSize = 1 << 20

// DefaultRetries is the recommended default number of per-file write
// attempts.
const DefaultRetries = 3

// Config holds the enumerated options that govern a synchronization run.
type Config struct {
	// BufferSize is the chunk size, in bytes, used for streaming reads and
	// for hashing.
	BufferSize int
	// Retries is the number of write attempts allowed per file before the
	// run is considered fatally failed for that file.
	Retries int
	// Delay is the pause observed between successive file copies in Phase 2
	// (skipped after the last file).
	Delay time.Duration
	// Destructive indicates that files present in the index but absent from
	// the source should be deleted from the destination after a successful
	// copy pass.
	Destructive bool
	// Silent suppresses progress and reporting side effects.
	Silent bool
}

// Default returns a Config populated with the recommended defaults.
func Default() *Config {
	return &Config{
		BufferSize:  DefaultBufferSize,
		Retries:     DefaultRetries,
		Delay:       0,
		Destructive: false,
		Silent:      false,
	}
}

// FileConfig is the TOML-decodable representation of a Config, loaded via
// github.com/BurntSushi/toml from an optional configuration file and then
// layered under command-line flags (flags always win). Fields are pointers
// so that an absent key in the file does not clobber a default or an
// already-parsed flag value.
type FileConfig struct {
	BufferSize  *int    `toml:"bufferSize"`
	Retries     *int    `toml:"retries"`
	DelaySeconds *float64 `toml:"delaySeconds"`
	Destructive *bool   `toml:"destructive"`
	Silent      *bool   `toml:"silent"`
}

// ApplyTo merges non-nil fields of the file configuration onto base,
// returning base for chaining.
func (f *FileConfig) ApplyTo(base *Config) *Config {
	if f == nil {
		return base
	}
	if f.BufferSize != nil {
		base.BufferSize = *f.BufferSize
	}
	if f.Retries != nil {
		base.Retries = *f.Retries
	}
	if f.DelaySeconds != nil {
		base.Delay = time.Duration(*f.DelaySeconds * float64(time.Second))
	}
	if f.Destructive != nil {
		base.Destructive = *f.Destructive
	}
	if f.Silent != nil {
		base.Silent = *f.Silent
	}
	return base
}
