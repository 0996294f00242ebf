package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/zlib"
	"github.com/odvcencio/unrusty/pkg/object"
)

// Config stores repository-local settings from .unrusty/config.toml.
type Config struct {
	Core CoreConfig `toml:"core"`
}

// CoreConfig controls the object store.
type CoreConfig struct {
	// Compression is the zlib level for new objects: -1 for the library
	// default, otherwise 0 (none) through 9 (best).
	Compression int `toml:"compression"`
	// VerifyOnRead re-hashes every object on read and rejects mismatches.
	VerifyOnRead bool `toml:"verify_on_read"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{Core: CoreConfig{Compression: zlib.DefaultCompression}}
}

func (c *Config) validate() error {
	if c.Core.Compression < zlib.DefaultCompression || c.Core.Compression > zlib.BestCompression {
		return fmt.Errorf("core.compression = %d, want -1..9", c.Core.Compression)
	}
	return nil
}

func (c *Config) storeOptions() []object.Option {
	return []object.Option{
		object.WithCompressionLevel(c.Core.Compression),
		object.WithVerifyOnRead(c.Core.VerifyOnRead),
	}
}

// ReadConfigAt reads a config file. A missing file yields DefaultConfig;
// keys absent from the file keep their defaults. Unknown keys are rejected.
func ReadConfigAt(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, &Error{Kind: ErrConfig, Op: "read config", Path: path, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &Error{Kind: ErrConfig, Op: "read config", Path: path, Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
	}
	if err := cfg.validate(); err != nil {
		return nil, &Error{Kind: ErrConfig, Op: "read config", Path: path, Err: err}
	}
	return cfg, nil
}

// WriteConfigAt atomically writes cfg to path.
func WriteConfigAt(path string, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return &Error{Kind: ErrConfig, Op: "write config", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// WriteConfig replaces the repository config and rebuilds the store with
// the new settings.
func (r *Repo) WriteConfig(cfg *Config) error {
	if err := WriteConfigAt(r.Layout.ConfigFile, cfg); err != nil {
		return err
	}
	r.Config = cfg
	r.Store = object.NewStore(r.Layout, cfg.storeOptions()...)
	return nil
}
