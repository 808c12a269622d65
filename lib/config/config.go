// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/objectbus/lib/names"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "OBJECTBUS_CONFIG"

// Config is the configuration for objectbusd.
type Config struct {
	// Listen configures the bus socket.
	Listen ListenConfig `yaml:"listen" json:"listen"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Counter configures the example counter object.
	Counter CounterConfig `yaml:"counter" json:"counter"`
}

// ListenConfig configures the bus socket.
type ListenConfig struct {
	// SocketPath is the Unix socket the daemon listens on.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/objectbus.sock
	SocketPath string `yaml:"socket_path" json:"socket_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" json:"level"`

	// Format is one of auto, text, json. auto picks text on a
	// terminal and JSON otherwise.
	// Default: auto
	Format string `yaml:"format" json:"format"`
}

// CounterConfig configures the example counter object.
type CounterConfig struct {
	// Path is the object path the counter is registered at.
	// Default: /org/example/Counter
	Path string `yaml:"path" json:"path"`

	// SpawnTasks makes counter method calls run concurrently.
	// Default: true
	SpawnTasks bool `yaml:"spawn_tasks" json:"spawn_tasks"`

	// Initial is the starting count.
	Initial int64 `yaml:"initial" json:"initial"`
}

// Default returns the default configuration. Loaded files are merged
// over it.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			SocketPath: "${XDG_RUNTIME_DIR:-/tmp}/objectbus.sock",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Counter: CounterConfig{
			Path:       "/org/example/Counter",
			SpawnTasks: true,
		},
	}
}

// Load loads configuration from the file named by OBJECTBUS_CONFIG.
// There are no fallbacks: if the variable is not set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your objectbus config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path, merged over Default, then
// expands variables and validates the result.
//
// The format follows the extension: .yaml and .yml are YAML, .json
// and .jsonc are JSON with comments and trailing commas allowed.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve returns the defaults with variables expanded, for running
// without a config file.
func Resolve() *Config {
	cfg := Default()
	cfg.expandVariables()
	return cfg
}

// loadFile loads a single configuration file, merging into the
// current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config file %s: unsupported extension %q (want .yaml, .yml, .json, or .jsonc)", path, extension)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Listen.SocketPath = expandVars(c.Listen.SocketPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided
// vars take precedence over the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json"}
)

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen.SocketPath == "" {
		errs = append(errs, errors.New("listen.socket_path is required"))
	}
	if !contains(logLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", logLevels))
	}
	if !contains(logFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", logFormats))
	}
	if _, err := names.ParseObjectPath(c.Counter.Path); err != nil {
		errs = append(errs, fmt.Errorf("counter.path: %w", err))
	}

	return errors.Join(errs...)
}

// CounterPath returns the validated counter object path. Call it only
// on a config that passed Validate.
func (c *Config) CounterPath() names.ObjectPath {
	return names.MustParseObjectPath(c.Counter.Path)
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
