package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rocketship-ai/flowrunner/internal/runner"
)

// Config is the optional on-disk CLI configuration. Every field can be
// overridden per invocation.
type Config struct {
	// Options seeds the continuous runner; --options and flags override it.
	Options        runner.Options `json:"options"`
	ElementTimeout string         `json:"element_timeout,omitempty"`
	ChromePath     string         `json:"chrome_path,omitempty"`
	ArtifactDir    string         `json:"artifact_dir,omitempty"`
	Results        ResultsConfig  `json:"results"`
}

// ResultsConfig points at the run history database.
type ResultsConfig struct {
	Driver string `json:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty"`
}

// DefaultConfig returns a new config with sensible defaults
func DefaultConfig() *Config {
	return &Config{Options: runner.DefaultOptions()}
}

// platformConfigDir returns the preferred directory for CLI config.
func platformConfigDir() (string, error) {
	if override := os.Getenv("FLOWRUNNER_CONFIG_DIR"); override != "" {
		return override, nil
	}

	if cfgDir, err := os.UserConfigDir(); err == nil && cfgDir != "" {
		return filepath.Join(cfgDir, "Flowrunner"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "flowrunner"), nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	dir, err := platformConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir resolve failed: %w", err)
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig loads the configuration from disk. A missing file yields the
// defaults; fields absent from the file keep their default values.
func LoadConfig() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if _, err := config.elementTimeout(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) elementTimeout() (time.Duration, error) {
	if c.ElementTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ElementTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid element_timeout %q in config: %w", c.ElementTimeout, err)
	}
	return d, nil
}

// resultsDatabase resolves the run history database: flags, then
// FLOWRUNNER_RESULTS_DRIVER / FLOWRUNNER_RESULTS_DB, then the config file.
// An empty DSN means history is disabled.
func (c *Config) resultsDatabase(driverFlag, dsnFlag string) (driver, dsn string) {
	driver, dsn = c.Results.Driver, c.Results.DSN
	if v := os.Getenv("FLOWRUNNER_RESULTS_DRIVER"); v != "" {
		driver = v
	}
	if v := os.Getenv("FLOWRUNNER_RESULTS_DB"); v != "" {
		dsn = v
	}
	if driverFlag != "" {
		driver = driverFlag
	}
	if dsnFlag != "" {
		dsn = dsnFlag
	}
	return driver, dsn
}
