// Package appconfig manages application configuration and runtime file paths.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the XPipe API key.
const APIKeyEnv = "XPIPE_API_KEY"

// ErrMissingAPIKey is returned when no API key is present in the environment
// or the local dotfile. It is a fatal configuration error: the browser must
// not enter its render loop without a credential source.
var ErrMissingAPIKey = errors.New(APIKeyEnv + " is not set (export it or add it to a local .env file)")

// ConfirmMode selects what Enter does on a server in the flat view.
type ConfirmMode string

const (
	// ConfirmDrill descends into a server's resource list when it has more
	// than one identifier; a second Enter opens the session.
	ConfirmDrill ConfirmMode = "drill"
	// ConfirmFlat always opens a session on the server's primary identifier.
	ConfirmFlat ConfirmMode = "flat"
)

// MatcherConfig describes the external fuzzy matcher invocation.
type MatcherConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// Config holds application-level configuration. The API key is deliberately
// absent here: credentials come from the environment, never the config file.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	ClientName       string        `yaml:"client_name"`
	DefaultDirectory string        `yaml:"default_directory"`
	TypeFilter       string        `yaml:"type_filter"`
	ConfirmMode      ConfirmMode   `yaml:"confirm_mode"`
	Matcher          MatcherConfig `yaml:"matcher"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BaseURL:          "http://localhost:21721",
		ClientName:       "xpipe-browser",
		DefaultDirectory: "/",
		TypeFilter:       "*",
		ConfirmMode:      ConfirmDrill,
		Matcher:          MatcherConfig{Command: "fzf"},
	}
}

// ConfigDir returns the application config directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/xpipe-browser.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "xpipe-browser"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "xpipe-browser"), nil
}

// Load reads config.yaml from the config directory.
// If the file doesn't exist, creates it with defaults. Invalid values are
// normalized back to defaults rather than rejected.
func Load() (Config, error) {
	d, err := ConfigDir()
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return Config{}, err
	}
	path := filepath.Join(d, "config.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return normalize(cfg), nil
}

// Save writes config to config.yaml.
func Save(cfg Config) error {
	d, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return err
	}
	path := filepath.Join(d, "config.yaml")
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// APIKey resolves the XPipe API key from the process environment, seeding it
// from a local .env dotfile first when one exists. A missing key is reported
// as ErrMissingAPIKey instead of aborting the process, so the failure mode
// stays testable.
func APIKey() (string, error) {
	// godotenv never overrides variables already set in the environment,
	// and a missing .env file is not worth reporting.
	_ = godotenv.Load()
	key := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

func normalize(cfg Config) Config {
	def := Default()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.ClientName) == "" {
		cfg.ClientName = def.ClientName
	}
	if strings.TrimSpace(cfg.DefaultDirectory) == "" {
		cfg.DefaultDirectory = def.DefaultDirectory
	}
	if strings.TrimSpace(cfg.TypeFilter) == "" {
		cfg.TypeFilter = def.TypeFilter
	}
	switch cfg.ConfirmMode {
	case ConfirmDrill, ConfirmFlat:
	default:
		cfg.ConfirmMode = def.ConfirmMode
	}
	if strings.TrimSpace(cfg.Matcher.Command) == "" {
		cfg.Matcher = def.Matcher
	}
	return cfg
}
