// Package config loads runtime configuration from YAML and supports
// hot-reload via a file watcher. All fields have working defaults, so a
// config file is optional.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DirectoryConfig sizes the sharded actor directory.
type DirectoryConfig struct {
	// Buckets is the shard count. Bucket selection is hash(address) mod Buckets.
	Buckets int `yaml:"buckets"`
	// BucketHint pre-sizes each bucket map.
	BucketHint int `yaml:"bucket_hint"`
}

// MailboxConfig sets defaults for newly created mailboxes.
type MailboxConfig struct {
	// Capacity bounds the queue; 0 means unbounded.
	Capacity int `yaml:"capacity"`
	// Overflow is one of "drop_oldest", "drop_newest", "reject".
	// Only consulted when Capacity > 0.
	Overflow string `yaml:"overflow"`
}

// Config is the complete runtime configuration.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel  string          `yaml:"log_level"`
	Directory DirectoryConfig `yaml:"directory"`
	Mailbox   MailboxConfig   `yaml:"mailbox"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Directory: DirectoryConfig{
			Buckets:    32,
			BucketHint: 32,
		},
		Mailbox: MailboxConfig{
			Capacity: 0,
			Overflow: "reject",
		},
	}
}

var validOverflow = map[string]struct{}{
	"drop_oldest": {},
	"drop_newest": {},
	"reject":      {},
}

var validLogLevel = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate reports the first invalid field, if any.
func (c *Config) Validate() error {
	if _, ok := validLogLevel[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	if c.Directory.Buckets <= 0 {
		return fmt.Errorf("directory.buckets must be > 0, got %d", c.Directory.Buckets)
	}
	if c.Mailbox.Capacity < 0 {
		return fmt.Errorf("mailbox.capacity must be >= 0, got %d", c.Mailbox.Capacity)
	}
	if _, ok := validOverflow[c.Mailbox.Overflow]; !ok {
		return fmt.Errorf("invalid mailbox.overflow: %q", c.Mailbox.Overflow)
	}
	return nil
}

// Load reads a YAML config file. Fields absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
