package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SetConfigPath overrides where Save writes this configuration.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// ConfigPath returns the path Save writes to: the explicit override when
// set, otherwise the global config file location.
func (c *Config) ConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	path, err := GetConfigFilePath()
	if err != nil {
		return ""
	}
	return path
}

// Save writes the configuration as YAML to ConfigPath. The file is
// written to a temporary sibling and renamed so a crash never leaves a
// half-written config behind.
func (c *Config) Save() error {
	path := c.ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine configuration file path")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(path), 0700); mkdirErr != nil {
		return fmt.Errorf("creating configuration directory: %w", mkdirErr)
	}

	tmp := path + ".tmp"
	if writeErr := os.WriteFile(tmp, data, 0600); writeErr != nil {
		return fmt.Errorf("writing configuration: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, path); renameErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing configuration file: %w", renameErr)
	}
	return nil
}

// Validate checks the configuration for values that would fail at use
// time: unknown log levels or formats, an unparseable registry URL, and
// an out-of-range documentation timeout.
func (c *Config) Validate() error {
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q is not a known level: %w", c.Logging.Level, err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}

	parsed, err := url.Parse(c.Registry.BaseURL)
	if err != nil {
		return fmt.Errorf("registry.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("registry.base_url must use http or https, got %q", c.Registry.BaseURL)
	}

	if c.Docgen.TimeoutSeconds < minDocgenTimeout || c.Docgen.TimeoutSeconds > maxDocgenTimeout {
		return fmt.Errorf("docgen.timeout_seconds must be between %d and %d, got %d",
			minDocgenTimeout, maxDocgenTimeout, c.Docgen.TimeoutSeconds)
	}

	return nil
}
