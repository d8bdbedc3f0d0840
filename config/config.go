// Package config loads the settings of the yield tools from a TOML or YAML
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
	"kastelo.dev/yield"
)

type Config struct {
	Input     InputConfig     `toml:"input" yaml:"input"`
	Output    OutputConfig    `toml:"output" yaml:"output"`
	Reference ReferenceConfig `toml:"reference" yaml:"reference"`
	Database  DatabaseConfig  `toml:"database" yaml:"database"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

type InputConfig struct {
	// Phrases stripped from order labels. Replaces the built in list.
	Boilerplate []string `toml:"boilerplate" yaml:"boilerplate"`
	Sheet       string   `toml:"sheet" yaml:"sheet"`
	CSVComma    string   `toml:"csv_comma" yaml:"csv_comma"`
	CSVEncoding string   `toml:"csv_encoding" yaml:"csv_encoding"`
}

type OutputConfig struct {
	Sheet  string `toml:"sheet" yaml:"sheet"`
	Dir    string `toml:"dir" yaml:"dir"`
	Prefix string `toml:"prefix" yaml:"prefix"`
}

type ReferenceConfig struct {
	File string `toml:"file" yaml:"file"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`
	Table  string `toml:"table" yaml:"table"`
}

type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	// MaxUpload is the multipart memory limit in megabytes.
	MaxUpload int64 `toml:"max_upload" yaml:"max_upload"`
}

type LogConfig struct {
	// Mode is "production" or "development".
	Mode string `toml:"mode" yaml:"mode"`
}

func Default() *Config {
	return &Config{
		Input: InputConfig{
			Boilerplate: yield.DefaultBoilerplate,
		},
		Output: OutputConfig{
			Sheet: "Monatsanalyse",
			Dir:   ".",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "yield.db",
			Table:  "monthly_yield",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			MaxUpload: 32,
		},
		Log: LogConfig{
			Mode: "production",
		},
	}
}

// Load reads the file at path, picking the format from the extension, and
// fills everything left unset from Default. An empty path yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := Decode(filepath.Ext(path), data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals data in the format named by ext (".toml", ".yaml" or
// ".yml").
func Decode(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("YIELD_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("YIELD_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
}

func (c *Config) Validate() error {
	if c.Input.CSVComma != "" && utf8.RuneCountInString(c.Input.CSVComma) != 1 {
		return fmt.Errorf("input.csv_comma: %q is not a single character", c.Input.CSVComma)
	}
	switch c.Log.Mode {
	case "production", "development":
	default:
		return fmt.Errorf("log.mode: unknown mode %q", c.Log.Mode)
	}
	if c.Server.MaxUpload <= 0 {
		return fmt.Errorf("server.max_upload: must be positive")
	}
	return nil
}

// CSV returns the CSV reader options of the input section.
func (c *Config) CSV() yield.CSVOptions {
	opts := yield.CSVOptions{Encoding: c.Input.CSVEncoding}
	if c.Input.CSVComma != "" {
		opts.Comma, _ = utf8.DecodeRuneInString(c.Input.CSVComma)
	}
	return opts
}

// OutputPath is where a workbook named name is written.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, c.Output.Prefix+name)
}
