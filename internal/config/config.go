// Package config loads the optional ~/.kaulin.yml settings file.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"kaulin/internal/runtime"
)

// FileName is the settings file looked up in the home directory.
const FileName = ".kaulin.yml"

// Config holds the user-tunable settings of the CLI and REPL.
type Config struct {
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"`
	MaxCallDepth int    `yaml:"max_call_depth"`
	LogLevel     string `yaml:"log_level"`
	Color        bool   `yaml:"color"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Prompt:       "kaulin> ",
		HistoryFile:  "~/.kaulin_history",
		MaxCallDepth: runtime.DefaultMaxCallDepth,
		LogLevel:     "info",
		Color:        true,
	}
}

// DefaultPath returns ~/.kaulin.yml, or "" when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, FileName)
}

// Load reads the file at path. A missing file yields the defaults unless
// mustExist is set.
func Load(path string, mustExist bool) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			log.LogVf("no config at %s, using defaults", path)
			return Default(), nil
		}
		return Config{}, errors.Wrapf(err, "config: open %s", path)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Decode parses YAML settings on top of the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "parse")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxCallDepth < 0 {
		return errors.Errorf("max_call_depth must not be negative, got %d", c.MaxCallDepth)
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = runtime.DefaultMaxCallDepth
	}
	if c.Prompt == "" {
		c.Prompt = Default().Prompt
	}
	if _, err := log.ValidateLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return nil
}

// Level returns the fortio log level named by LogLevel.
func (c Config) Level() log.Level {
	lvl, err := log.ValidateLevel(c.LogLevel)
	if err != nil {
		return log.Info
	}
	return lvl
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
