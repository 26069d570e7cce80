package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/rpcpool/karaoke-archivist/kerr"
)

const ConfigVersion = 1

// Config drives both the build pipeline and the serve process. Most
// fields apply to one phase only; both phases share input/output roots
// so that serve can find what build produced.
type Config struct {
	originalFilepath string
	hashOfConfigFile string

	Version int `json:"version" yaml:"version"`

	// InputRoot is the source catalog root containing Data/SONG.DBF and
	// Songs/....
	InputRoot string `json:"input_root" yaml:"input_root"`

	// OutputRoot is the destination for archives and index artifacts.
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// BatchSize is the max tracks per batch archive (10..1000).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// LargeZipLimitMB is the byte ceiling, in megabytes, for batch and
	// super-archive sizes (50..5000).
	LargeZipLimitMB int `json:"large_zip_limit_mb" yaml:"large_zip_limit_mb"`

	// CreateZips, if false, skips archive emission; the index is still
	// built.
	CreateZips bool `json:"create_zips" yaml:"create_zips"`

	// CreateIndexZip, if true, produces index.zip at the end of the
	// build.
	CreateIndexZip bool `json:"create_index_zip" yaml:"create_index_zip"`

	// MaxWorkers bounds asset-fetch parallelism.
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// ListenAddr is the address the serve phase's HTTP API binds to.
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// ShardCacheMB bounds the in-memory shard cache used by the serve
	// phase's query engine.
	ShardCacheMB int `json:"shard_cache_mb" yaml:"shard_cache_mb"`
}

// OriginalFilepath returns the filepath the config was loaded from.
func (c *Config) OriginalFilepath() string {
	return c.originalFilepath
}

// Hash returns the sha256 hash of the config file the Config was loaded
// from, computed at load time.
func (c *Config) Hash() string {
	return c.hashOfConfigFile
}

// LargeZipLimitBytes returns LargeZipLimitMB converted to bytes.
func (c *Config) LargeZipLimitBytes() int64 {
	return int64(c.LargeZipLimitMB) * 1024 * 1024
}

// LoadConfig reads a JSON or YAML config file (sniffed by extension,
// defaulting to JSON) into a Config and fills in defaults for anything
// left zero.
func LoadConfig(configFilepath string) (*Config, error) {
	ok, err := exists(configFilepath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if config file exists: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("config file %q does not exist", configFilepath)
	}

	cfg := &Config{}
	if isYAMLFile(configFilepath) {
		if err := loadFromYAML(configFilepath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from YAML file: %w", err)
		}
	} else {
		if err := loadFromJSON(configFilepath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from JSON file: %w", err)
		}
	}

	cfg.applyDefaults()

	cfg.originalFilepath = configFilepath
	hash, err := hashFileSha256(configFilepath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash config file: %w", err)
	}
	cfg.hashOfConfigFile = hash

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = ConfigVersion
	}
	if c.BatchSize == 0 {
		c.BatchSize = 200
	}
	if c.LargeZipLimitMB == 0 {
		c.LargeZipLimitMB = 200
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = 8
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.ShardCacheMB == 0 {
		c.ShardCacheMB = 64
	}
}

// hashFileSha256 computes the sha256 hash of a file's contents, hex
// encoded.
func hashFileSha256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Validate checks field-level constraints and returns a descriptive
// error naming the first offending field.
func (c *Config) Validate() error {
	if c.InputRoot == "" {
		return fmt.Errorf("%w: input_root must not be empty", kerr.ErrInputNotFound)
	}
	if ok, err := isDirectory(c.InputRoot); err != nil || !ok {
		return fmt.Errorf("%w: input_root %q must be an existing directory", kerr.ErrInputNotFound, c.InputRoot)
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output_root must not be empty")
	}
	if c.BatchSize < 10 || c.BatchSize > 1000 {
		return fmt.Errorf("batch_size must be between 10 and 1000, got %d", c.BatchSize)
	}
	if c.LargeZipLimitMB < 50 || c.LargeZipLimitMB > 5000 {
		return fmt.Errorf("large_zip_limit_mb must be between 50 and 5000, got %d", c.LargeZipLimitMB)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers)
	}
	if c.ShardCacheMB < 1 {
		return fmt.Errorf("shard_cache_mb must be at least 1, got %d", c.ShardCacheMB)
	}
	return nil
}
