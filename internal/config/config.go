package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/nikicat/pass-engine/internal/clipboard"
	"github.com/nikicat/pass-engine/internal/crypto"
	"github.com/nikicat/pass-engine/internal/store"
)

// Config holds the configuration for pass-engine
type Config struct {
	// StorePath is the root of the password store
	StorePath string `yaml:"store_path"`

	// Extension is the suffix of entry files, without the dot
	Extension string `yaml:"extension"`

	// Backend selects how entries are decrypted (gpg, openpgp, gopass, plain)
	Backend string `yaml:"backend"`

	// GPGBinary is the gpg executable used by the gpg backend
	GPGBinary string `yaml:"gpg_binary"`

	// KeyringPath is the secret keyring used by the openpgp backend
	KeyringPath string `yaml:"keyring_path"`

	// ClipboardTimeout is how long copied secrets stay on the clipboard
	ClipboardTimeout time.Duration `yaml:"clipboard_timeout"`

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFile is the path to the log file (empty for stderr)
	LogFile string `yaml:"log_file"`

	// Replace indicates whether to replace a running instance on the bus
	Replace bool `yaml:"replace"`

	// Passphrase unlocks the openpgp keyring; only read from the environment
	Passphrase string `yaml:"-"`

	// ConfigPath is the path to the config file
	ConfigPath string `yaml:"-"`
}

// Overrides are command-line values applied after file and environment.
// Zero values leave the setting untouched.
type Overrides struct {
	ConfigPath string
	StorePath  string
	Backend    string
	Debug      bool
	Replace    bool
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Extension:        store.DefaultExtension,
		Backend:          crypto.BackendGPG,
		GPGBinary:        "gpg",
		ClipboardTimeout: clipboard.DefaultWindow,
		LogLevel:         "info",
	}
}

// Load loads configuration from the config file, environment and overrides
func Load(o Overrides) (*Config, error) {
	cfg := DefaultConfig()

	switch {
	case o.ConfigPath != "":
		cfg.ConfigPath = o.ConfigPath
	case os.Getenv("PASS_ENGINE_CONFIG") != "":
		cfg.ConfigPath = os.Getenv("PASS_ENGINE_CONFIG")
	default:
		cfg.ConfigPath = DefaultConfigPath()
	}
	cfg.ConfigPath = expandPath(cfg.ConfigPath)

	if err := cfg.loadFromFile(); err != nil {
		// Only error if the file exists but can't be read
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if o.StorePath != "" {
		cfg.StorePath = o.StorePath
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Debug {
		cfg.LogLevel = "debug"
	}
	if o.Replace {
		cfg.Replace = true
	}

	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath(cfg.Backend)
	}
	cfg.StorePath = expandPath(cfg.StorePath)
	cfg.KeyringPath = expandPath(cfg.KeyringPath)
	cfg.LogFile = expandPath(cfg.LogFile)

	return cfg, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/pass-engine/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "pass-engine", "config.yaml")
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	backends := append(crypto.SupportedBackends(), store.BackendGopass)
	if !slices.Contains(backends, c.Backend) {
		return fmt.Errorf("unsupported backend %q (want one of %s)", c.Backend, strings.Join(backends, ", "))
	}
	if c.StorePath == "" {
		return errors.New("store path is empty")
	}
	if c.Extension == "" || strings.Contains(c.Extension, "/") {
		return fmt.Errorf("invalid extension %q", c.Extension)
	}
	if c.ClipboardTimeout <= 0 {
		return fmt.Errorf("clipboard timeout must be positive, got %s", c.ClipboardTimeout)
	}
	if c.Backend == crypto.BackendOpenPGP && c.KeyringPath == "" {
		return errors.New("openpgp backend requires keyring_path")
	}
	return nil
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() error {
	// relative values are ignored, leaving the default store in place
	if v := os.Getenv("PASSWORD_STORE_DIR"); v != "" && filepath.IsAbs(expandPath(v)) {
		c.StorePath = v
	}
	if v := os.Getenv("PASS_ENGINE_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("PASS_ENGINE_EXTENSION"); v != "" {
		c.Extension = v
	}
	if v := os.Getenv("PASS_ENGINE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("PASS_ENGINE_GPG_BINARY"); v != "" {
		c.GPGBinary = v
	}
	if v := os.Getenv("PASS_ENGINE_KEYRING"); v != "" {
		c.KeyringPath = v
	}
	if v := os.Getenv("PASS_ENGINE_PASSPHRASE"); v != "" {
		c.Passphrase = v
	}
	if v := os.Getenv("PASS_ENGINE_CLIPBOARD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PASS_ENGINE_CLIPBOARD_TIMEOUT: %w", err)
		}
		c.ClipboardTimeout = d
	}
	if v := os.Getenv("PASS_ENGINE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PASS_ENGINE_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("PASS_ENGINE_REPLACE"); v == "true" || v == "1" {
		c.Replace = true
	}
	return nil
}

func defaultStorePath(backend string) string {
	if backend == store.BackendGopass {
		return "~/.local/share/gopass/stores/root"
	}
	return "~/.password-store"
}

// expandPath resolves a leading ~ or $HOME against the home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	var rest string
	switch {
	case path == "~" || path == "$HOME":
		rest = ""
	case strings.HasPrefix(path, "~/"):
		rest = path[2:]
	case strings.HasPrefix(path, "$HOME/"):
		rest = path[len("$HOME/"):]
	default:
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, rest)
}
