// Package config loads specdoc engine and CLI settings with spf13/viper.
//
// Sources, lowest precedence first: built-in defaults, an optional config
// file (yaml, yml, toml, json or cue, chosen by extension), then environment
// variables prefixed with SPECDOC_ ("parse.max_depth" is
// SPECDOC_PARSE_MAX_DEPTH).
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	specdoc "github.com/reoring/specdoc"
)

const (
	// EnvPrefix is the environment variable prefix.
	EnvPrefix = "SPECDOC"
	// ConfigFileName is the config file name (without extension) searched in
	// the working directory when no explicit path is given.
	ConfigFileName = "specdoc"
)

// Config is the resolved configuration.
type Config struct {
	Log    LogConfig             `mapstructure:"log"`
	Parse  ParseConfig           `mapstructure:"parse"`
	Output OutputConfig          `mapstructure:"output"`
	Specs  map[string]SpecConfig `mapstructure:"specs"`
}

// LogConfig controls the charmbracelet logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParseConfig maps onto specdoc.ParseOptions.
type ParseConfig struct {
	MaxDepth      int    `mapstructure:"max_depth"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
	DuplicateKeys string `mapstructure:"duplicate_keys"`
	Collect       bool   `mapstructure:"collect"`
}

// OutputConfig controls builder output.
type OutputConfig struct {
	Indent string `mapstructure:"indent"`
}

// SpecConfig holds per-specification settings.
type SpecConfig struct {
	// Version pins the version used when none is requested explicitly.
	Version string `mapstructure:"version"`
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set; it must exist.
	ConfigFilePath string
	// SearchDirs are probed in order for specdoc.{yaml,yml,toml,json,cue}
	// when ConfigFilePath is empty.
	SearchDirs []string
	// LookupEnv replaces os.LookupEnv (tests).
	LookupEnv func(string) (string, bool)
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json", "logfmt"}
	fileExts     = []string{"yaml", "yml", "toml", "json", "cue"}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Parse:  ParseConfig{MaxDepth: 256, DuplicateKeys: "error"},
		Output: OutputConfig{Indent: "  "},
		Specs:  map[string]SpecConfig{},
	}
}

// Load resolves the configuration. It returns the config and the path of the
// file it was read from ("" when defaults and environment only).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("parse.max_depth", d.Parse.MaxDepth)
	v.SetDefault("parse.max_bytes", d.Parse.MaxBytes)
	v.SetDefault("parse.duplicate_keys", d.Parse.DuplicateKeys)
	v.SetDefault("parse.collect", d.Parse.Collect)
	v.SetDefault("output.indent", d.Output.Indent)

	resolved := opts.ConfigFilePath
	if resolved == "" {
		resolved = findConfigFile(opts.SearchDirs)
	} else if !fileExists(resolved) {
		return nil, "", fmt.Errorf("config file not found: %s", resolved)
	}
	if resolved != "" {
		if err := readInto(v, resolved); err != nil {
			return nil, "", fmt.Errorf("config %s: %w", resolved, err)
		}
	}

	applyEnv(v, opts.LookupEnv)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Specs == nil {
		cfg.Specs = map[string]SpecConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// applyEnv copies SPECDOC_* variables for the known keys into v. viper's
// AutomaticEnv only consults the process environment, so tests can inject a
// lookup function instead.
func applyEnv(v *viper.Viper, lookup func(string) (string, bool)) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if lookup == nil {
		v.AutomaticEnv()
		return
	}
	for _, key := range v.AllKeys() {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if val, ok := lookup(name); ok {
			v.Set(key, val)
		}
	}
}

func readInto(v *viper.Viper, path string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "cue" {
		return loadCUEIntoViper(v, path)
	}
	v.SetConfigFile(path)
	return v.ReadInConfig()
}

// loadCUEIntoViper evaluates a CUE config file and merges its concrete
// values into viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	val := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return fmt.Errorf("CUE parse error: %w", err)
	}
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("CUE validation error: %w", err)
	}
	var m map[string]any
	if err := val.Decode(&m); err != nil {
		return fmt.Errorf("CUE decode error: %w", err)
	}
	return v.MergeConfigMap(m)
}

func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range fileExts {
			p := filepath.Join(dir, ConfigFileName+"."+ext)
			if fileExists(p) {
				return p
			}
		}
	}
	return ""
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Validate checks enumerated and numeric settings and names the failing key.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q (want one of %s)", c.Log.Level, strings.Join(validLevels, ", ")))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want one of %s)", c.Log.Format, strings.Join(validFormats, ", ")))
	}
	if c.Parse.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("parse.max_depth: must not be negative, got %d", c.Parse.MaxDepth))
	}
	if c.Parse.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("parse.max_bytes: must not be negative, got %d", c.Parse.MaxBytes))
	}
	if _, err := specdoc.ParseSeverity(c.Parse.DuplicateKeys); err != nil {
		errs = append(errs, fmt.Errorf("parse.duplicate_keys: %w", err))
	}
	return errors.Join(errs...)
}

// ParseOptions projects the parse section into engine options.
func (c *Config) ParseOptions() specdoc.ParseOptions {
	sev, _ := specdoc.ParseSeverity(c.Parse.DuplicateKeys)
	return specdoc.ParseOptions{
		OnDuplicateKey: sev,
		MaxDepth:       c.Parse.MaxDepth,
		MaxBytes:       c.Parse.MaxBytes,
		Collect:        c.Parse.Collect,
	}
}

// SpecVersion returns the pinned version for spec, "" when none.
func (c *Config) SpecVersion(spec string) string {
	return c.Specs[spec].Version
}
