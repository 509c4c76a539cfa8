package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".a11yscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers decide whether that is an error based on whether the path was
// given explicitly by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Targets == nil {
		cf.Targets = make(map[string]TargetConfig)
	}

	if err := checkLevel("defaults", cf.Defaults.Level); err != nil {
		return nil, err
	}
	for name, tc := range cf.Targets {
		if err := checkLevel("targets."+name, tc.Level); err != nil {
			return nil, err
		}
	}

	return &cf, nil
}

func checkLevel(where string, level model.Level) error {
	if level == "" {
		return nil
	}
	if _, ok := model.ParseLevel(string(level)); !ok {
		return fmt.Errorf("%s: %w (got %q)", where, ErrInvalidLevel, level)
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .a11yscan in the current directory
// 3. Look for .a11yscan in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// RuleTable builds the rule table for a run: the built-in defaults, then
// the rules: section of the config file, then the --rules file.
// The result is validated.
func RuleTable(cf *File, rulesFile string) (*ruleset.Table, error) {
	t := ruleset.Default()
	if cf != nil && cf.Rules != nil {
		t = ruleset.Merge(t, cf.Rules)
	}

	if rulesFile != "" {
		data, err := os.ReadFile(rulesFile) //nolint:gosec // path is provided by the user via --rules
		if err != nil {
			return nil, fmt.Errorf("failed to read rule table: %w", err)
		}
		override, err := ruleset.Parse(data)
		if err != nil {
			return nil, err
		}
		t = ruleset.Merge(t, override)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule table: %w", err)
	}
	return t, nil
}
