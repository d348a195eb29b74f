package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	// EnvStorageBasePath overrides the storage base path.
	EnvStorageBasePath    = "STORAGE_BASE_PATH"
	EnvStorageMaxFileSize = "STORAGE_MAX_FILE_SIZE"
)

// StorageConfig contains scratch storage configuration for selected files.
type StorageConfig struct {
	// BasePath is the root directory for spilled selections.
	// Default: ".data/scratch"
	BasePath       string `toml:"base_path"`
	MaxFileSize    string `toml:"max_file_size"`
	maxFileSizeVal int64
}

// MaxFileSizeBytes returns the parsed max_file_size. Valid after Finalize.
func (c *StorageConfig) MaxFileSizeBytes() int64 {
	return c.maxFileSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *StorageConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	if size, err := units.FromHumanSize(overlay.MaxFileSize); err == nil {
		c.MaxFileSize = overlay.MaxFileSize
		c.maxFileSizeVal = size
	}
}

func (c *StorageConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = ".data/scratch"
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "100MB"
	}
}

func (c *StorageConfig) loadEnv() {
	if v := os.Getenv(EnvStorageBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvStorageMaxFileSize); v != "" {
		c.MaxFileSize = v
	}
}

func (c *StorageConfig) validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("base_path required")
	}

	size, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	c.maxFileSizeVal = size

	return nil
}
