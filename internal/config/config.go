// Package config handles loading sourcemapper configuration.
//
// Configuration can be specified in sourcemapper.json, .sourcemapperrc
// (JSON) or sourcemapper.yaml. The config file is searched for in the
// current directory and parent directories. Environment variables override
// the file, and CLI flags override both.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration. Unset fields are invalid null
// values and leave the lower-precedence value in place when applied.
type Config struct {
	// LogLevel is a logrus level name: panic, fatal, error, warn, info,
	// debug or trace.
	LogLevel null.String `json:"logLevel" envconfig:"SOURCEMAPPER_LOG_LEVEL"`

	// LogFormat is "text" or "json".
	LogFormat null.String `json:"logFormat" envconfig:"SOURCEMAPPER_LOG_FORMAT"`

	// StrictVersion rejects source maps whose version is not 3.
	StrictVersion null.Bool `json:"strictVersion" envconfig:"SOURCEMAPPER_STRICT_VERSION"`

	// NoColor disables colored CLI output.
	NoColor null.Bool `json:"noColor" envconfig:"SOURCEMAPPER_NO_COLOR"`
}

// yamlConfig mirrors Config for YAML files; null types have no YAML
// decoding of their own.
type yamlConfig struct {
	LogLevel      *string `yaml:"logLevel"`
	LogFormat     *string `yaml:"logFormat"`
	StrictVersion *bool   `yaml:"strictVersion"`
	NoColor       *bool   `yaml:"noColor"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"sourcemapper.json",
	".sourcemapperrc",
	"sourcemapper.yaml",
}

// NewConfig returns the defaults.
func NewConfig() Config {
	return Config{
		LogLevel:      null.NewString("warn", false),
		LogFormat:     null.NewString("text", false),
		StrictVersion: null.NewBool(false, false),
		NoColor:       null.NewBool(false, false),
	}
}

// Apply copies the set values of cfg into the receiver.
func (c Config) Apply(cfg Config) Config {
	if cfg.LogLevel.Valid && cfg.LogLevel.String != "" {
		c.LogLevel = cfg.LogLevel
	}
	if cfg.LogFormat.Valid && cfg.LogFormat.String != "" {
		c.LogFormat = cfg.LogFormat
	}
	if cfg.StrictVersion.Valid {
		c.StrictVersion = cfg.StrictVersion
	}
	if cfg.NoColor.Valid {
		c.NoColor = cfg.NoColor
	}
	return c
}

// Validate checks values that the CLI cannot interpret.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel.String); err != nil {
		return fmt.Errorf("invalid logLevel: %w", err)
	}
	switch c.LogFormat.String {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logFormat %q, want text or json", c.LogFormat.String)
	}
	return nil
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(fs afero.Fs, startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := fs.Stat(path); err == nil {
				cfg, err := LoadFile(fs, path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. Files ending in
// .yaml or .yml are YAML, everything else is JSON.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var yc yamlConfig
		if err := yaml.Unmarshal(data, &yc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return &Config{
			LogLevel:      null.StringFromPtr(yc.LogLevel),
			LogFormat:     null.StringFromPtr(yc.LogFormat),
			StrictVersion: null.BoolFromPtr(yc.StrictVersion),
			NoColor:       null.BoolFromPtr(yc.NoColor),
		}, nil
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// FromEnv reads the SOURCEMAPPER_* variables through lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg, lookup); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// Sources describes where the consolidated configuration comes from.
type Sources struct {
	Fs       afero.Fs
	StartDir string // directory where the file search begins
	File     string // explicit config file; skips the search
	NoFile   bool   // ignore config files entirely
	Env      func(string) (string, bool)
	Flags    Config // values set on the command line
}

// Consolidate merges defaults, the config file, the environment and CLI
// flags, in increasing precedence. It returns the path of the file used,
// if any.
func Consolidate(src Sources) (Config, string, error) {
	result := NewConfig()
	var path string

	if !src.NoFile {
		var (
			cfg *Config
			err error
		)
		if src.File != "" {
			path = src.File
			cfg, err = LoadFile(src.Fs, src.File)
		} else {
			cfg, path, err = Load(src.Fs, src.StartDir)
		}
		if err != nil {
			return result, path, fmt.Errorf("loading config: %w", err)
		}
		if cfg != nil {
			result = result.Apply(*cfg)
		}
	}

	if src.Env != nil {
		env, err := FromEnv(src.Env)
		if err != nil {
			return result, path, err
		}
		result = result.Apply(env)
	}

	result = result.Apply(src.Flags)
	return result, path, result.Validate()
}
