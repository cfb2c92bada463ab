// Package config loads the daemon configuration from a YAML file, a .env
// file and QMKONTEXT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

const (
	DefaultFileName    = "config.yaml"
	DefaultInstallPath = "/etc/qmkontext"
	DefaultChannel     = "qmkontext"
	DefaultLogLevel    = "info"
	DefaultUsage       = 0x61
	DefaultUsagePage   = 0xFF60
)

var (
	// ErrConfigNotFound is returned when no configuration file can be located.
	ErrConfigNotFound = errors.New("could not find any config file to be used")
	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("invalid config")
)

// FsFactory returns the file system config files are read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

type Config struct {
	LogLevel       string                `yaml:"log_level"`
	DebugMode      bool                  `yaml:"debug_mode"`
	Keyboard       KeyboardConfig        `yaml:"keyboard"`
	CurrentProgram CurrentProgramConfig  `yaml:"current_program"`
	CustomCommands []CustomCommandConfig `yaml:"custom_commands"`
	Relay          RelayConfig           `yaml:"relay"`

	// Path is the file the config was read from.
	Path string `yaml:"-"`
}

type KeyboardConfig struct {
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
	Usage     uint16 `yaml:"usage"`
	UsagePage uint16 `yaml:"usage_page"`
}

type CurrentProgramConfig struct {
	Enable          bool             `yaml:"enable"`
	CommandID       uint8            `yaml:"command_id"`
	IntervalSeconds uint16           `yaml:"interval_seconds"`
	DefaultValue    uint8            `yaml:"default_value"`
	Mappings        []ProgramMapping `yaml:"mappings"`
	UseLowercase    bool             `yaml:"use_lowercase"`
}

type ProgramMapping struct {
	Key   string `yaml:"key"`
	Value uint8  `yaml:"value"`
}

type CustomCommandConfig struct {
	Command         string `yaml:"command"`
	CommandID       uint8  `yaml:"command_id"`
	IntervalSeconds uint16 `yaml:"interval_seconds"`
}

// RelayConfig configures the valkey channel used by the relay and emulate
// commands, and by run when Publish is set.
type RelayConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
	Publish bool   `yaml:"publish"`
}

// Interval returns the polling interval of the current program source.
func (c CurrentProgramConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Interval returns the polling interval of the command.
func (c CustomCommandConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// envOverrides are applied after the file. Pointers distinguish unset
// variables from zero values.
type envOverrides struct {
	LogLevel     *string `env:"QMKONTEXT_LOG_LEVEL"`
	DebugMode    *bool   `env:"QMKONTEXT_DEBUG_MODE"`
	RelayAddr    *string `env:"QMKONTEXT_VALKEY_ADDR"`
	RelayChannel *string `env:"QMKONTEXT_VALKEY_CHANNEL"`
}

func defaults() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Keyboard: KeyboardConfig{
			Usage:     DefaultUsage,
			UsagePage: DefaultUsagePage,
		},
		Relay: RelayConfig{Channel: DefaultChannel},
	}
}

// Load resolves the config file, decodes it and applies environment
// overrides. An empty path searches ./config.yaml then
// /etc/qmkontext/config.yaml.
func Load(path string) (*Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(FsFactory(), resolved)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resolved, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", resolved, err)
	}
	cfg.Path = resolved

	LoadDotenv(".env")
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath returns the config file to use. An explicit path must exist.
func ResolvePath(path string) (string, error) {
	fs := FsFactory()

	if path != "" {
		if !isFile(fs, path) {
			return "", fmt.Errorf("%w: could not find file %s", ErrConfigNotFound, path)
		}
		return path, nil
	}

	for _, candidate := range []string{
		DefaultFileName,
		filepath.Join(DefaultInstallPath, DefaultFileName),
	} {
		if isFile(fs, candidate) {
			return candidate, nil
		}
	}
	return "", ErrConfigNotFound
}

func isFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// LoadDotenv loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotenv(path string) bool {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", path, err)
		}
		return false
	}
	return true
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.DebugMode != nil {
		c.DebugMode = *o.DebugMode
	}
	if o.RelayAddr != nil {
		c.Relay.Addr = *o.RelayAddr
	}
	if o.RelayChannel != nil {
		c.Relay.Channel = *o.RelayChannel
	}
	return nil
}

// Validate reports every problem found in the config.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log_level %q is not one of trace, debug, info, warn, error", c.LogLevel))
	}

	if c.CurrentProgram.Enable {
		if c.CurrentProgram.IntervalSeconds == 0 {
			result = multierror.Append(result, errors.New("current_program.interval_seconds must be at least 1"))
		}
		for i, m := range c.CurrentProgram.Mappings {
			if m.Key == "" {
				result = multierror.Append(result, fmt.Errorf("current_program.mappings[%d].key is empty", i))
			}
		}
	}

	for i, cc := range c.CustomCommands {
		if cc.Command == "" {
			result = multierror.Append(result, fmt.Errorf("custom_commands[%d].command is empty", i))
		}
		if cc.IntervalSeconds == 0 {
			result = multierror.Append(result, fmt.Errorf("custom_commands[%d].interval_seconds must be at least 1", i))
		}
	}

	if c.Relay.Publish && c.Relay.Addr == "" {
		result = multierror.Append(result, errors.New("relay.addr is required when relay.publish is set"))
	}
	if c.Relay.Channel == "" {
		result = multierror.Append(result, errors.New("relay.channel is empty"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// NeedsKeyboard reports whether run sends to the HID device.
func (c *Config) NeedsKeyboard() bool {
	return !c.DebugMode && !c.Relay.Publish
}
