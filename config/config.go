// Package config loads parsegen.toml, the way dekarrin/tunaq loads its
// own TOML config: BurntSushi/toml into a plain struct, with defaults
// filled in for anything the file omits. It supplies MAX_K and the
// fixed-point parallelism as data instead of compile-time constants.
// max_bits is read and defaulted but not applied anywhere: ktuple.MaxBits
// is the ceiling the bit-packing enforces.
package config

import (
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is parsegen.toml's shape.
type Config struct {
	MaxK        int `toml:"max_k"`
	MaxBits     int `toml:"max_bits"`
	Parallelism int `toml:"parallelism"`
}

// DefaultMaxK is spec.md §5's MAX_K ceiling absent a config file.
const DefaultMaxK = 10

// DefaultMaxBits is ktuple.MaxBits, repeated here so callers that only
// import config still see the default without also importing ktuple.
const DefaultMaxBits = 12

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		MaxK:        DefaultMaxK,
		MaxBits:     DefaultMaxBits,
		Parallelism: runtime.NumCPU(),
	}
}

// Load reads and parses the TOML file at path, replacing any zero or
// negative field with its default. A missing file is not an error: Load returns
// Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.MaxK <= 0 {
		cfg.MaxK = DefaultMaxK
	}
	if cfg.MaxBits <= 0 {
		cfg.MaxBits = DefaultMaxBits
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.NumCPU()
	}

	return cfg, nil
}
