package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config carries fidump's optional settings, loadable from a TOML file via
// --config. Absent a file, DefaultConfig applies.
//
// Mirrors the decode-into-struct idiom of the teacher's
// modules/zeta/config package (toml.DecodeFile into a plain struct), scaled
// down to the handful of knobs this CLI actually has.
type Config struct {
	// ContextLines is the number of preceding directive lines the parser
	// retains for crash-dump diagnostics (fastimport.WithContextLines).
	ContextLines int `toml:"context_lines"`

	// AllowUnsafeFeatures lists `feature` tokens that would otherwise be
	// rejected by a strict importer; fidump only records them, but a
	// future policy layer could consult this allowlist.
	AllowUnsafeFeatures []string `toml:"allow_unsafe_features"`
}

// DefaultConfig is used when no --config file is given.
var DefaultConfig = Config{ContextLines: 20}

// loadConfig reads path as TOML into a copy of DefaultConfig. An empty path
// returns DefaultConfig unchanged.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
