package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBranch = "main"

	envLogLevel      = "VSX_LOG_LEVEL"
	envDefaultBranch = "VSX_DEFAULT_BRANCH"
)

// Config is the repository configuration stored in .vsx/config.
type Config struct {
	Core struct {
		DefaultBranch string `toml:"default_branch"`
	} `toml:"core"`

	Log struct {
		Level    string `toml:"level"`    // debug, info, warn, error
		Encoding string `toml:"encoding"` // console, json
	} `toml:"log"`

	Objects struct {
		CacheSize        int  `toml:"cache_size"`
		Compress         bool `toml:"compress"`
		CompressionLevel int  `toml:"compression_level"`
		MinCompressSize  int  `toml:"min_compress_size"`
	} `toml:"objects"`
}

func Default() *Config {
	var c Config
	c.Core.DefaultBranch = DefaultBranch
	c.Log.Level = "warn"
	c.Log.Encoding = "console"
	c.Objects.CacheSize = 1024
	c.Objects.Compress = true
	c.Objects.CompressionLevel = 2
	c.Objects.MinCompressSize = 1024
	return &c
}

// Load reads the TOML file at path over the defaults. A missing or empty
// file yields the defaults; environment overrides apply last.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := toml.DecodeFile(path, config); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return file.Close()
}

func (c *Config) Validate() error {
	if c.Core.DefaultBranch == "" {
		return fmt.Errorf("config: core.default_branch must not be empty")
	}
	if c.Objects.CacheSize <= 0 {
		return fmt.Errorf("config: objects.cache_size must be positive, got %d", c.Objects.CacheSize)
	}
	if c.Objects.CompressionLevel < 1 || c.Objects.CompressionLevel > 4 {
		return fmt.Errorf("config: objects.compression_level must be between 1 and 4, got %d", c.Objects.CompressionLevel)
	}
	return nil
}

func (c *Config) applyEnv() {
	if level := os.Getenv(envLogLevel); level != "" {
		c.Log.Level = level
	}
	if branch := os.Getenv(envDefaultBranch); branch != "" {
		c.Core.DefaultBranch = branch
	}
}
