package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultProfile is the profile used when none is selected.
	DefaultProfile = "default"
	// DefaultURL is the router URL used when a profile doesn't set one.
	DefaultURL = "wss://fabric.crossbario.com"
	// DefaultPrivateKeyFile is the private key file used when a profile doesn't set one.
	DefaultPrivateKeyFile = "default.priv"
	// DefaultPublicKeyFile is the public key file used when a profile doesn't set one.
	DefaultPublicKeyFile = "default.pub"
)

// ErrInvalidURL indicates the profile URL is not a websocket URL.
var ErrInvalidURL = errors.New("invalid url")

// Profile is a named connection profile as persisted in the config file.
type Profile struct {
	// URL is the router websocket URL.
	URL string `yaml:"url,omitempty"`
	// Realm is the realm to join. Empty lets the router decide.
	Realm string `yaml:"realm,omitempty"`
	// Role is the authrole requested. Empty lets the router decide.
	Role string `yaml:"role,omitempty"`
	// PrivateKey is the private key file, relative to the config directory.
	PrivateKey string `yaml:"privkey,omitempty"`
	// PublicKey is the public key file, relative to the config directory.
	PublicKey string `yaml:"pubkey,omitempty"`
	// Keyring stores the private key seed in the OS keyring instead of PrivateKey.
	Keyring bool `yaml:"keyring,omitempty"`
	// TLSSkipVerify disables TLS certificate verification.
	TLSSkipVerify bool `yaml:"tls_skip_verify,omitempty"`
	// CACert is the path to a CA certificate file.
	CACert string `yaml:"ca_cert,omitempty"`
}

// OutputConfig holds the initial output settings of the shell.
type OutputConfig struct {
	Format    string `yaml:"format,omitempty"`
	Verbosity string `yaml:"verbosity,omitempty"`
	Style     string `yaml:"style,omitempty"`
}

// NotificationConfig holds settings for desktop notifications.
type NotificationConfig struct {
	// Enabled enables desktop notifications.
	Enabled bool `yaml:"enabled,omitempty"`
	// OnCodeSent notifies when an activation code was emailed.
	OnCodeSent bool `yaml:"on_code_sent,omitempty"`
	// OnFailure notifies when authentication failed.
	OnFailure bool `yaml:"on_failure,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Config represents the shell configuration file.
type Config struct {
	Profiles      map[string]Profile `yaml:"profiles,omitempty"`
	Output        OutputConfig       `yaml:"output,omitempty"`
	CallTimeout   time.Duration      `yaml:"call_timeout,omitempty"`
	Notifications NotificationConfig `yaml:"notifications,omitempty"`
	Log           LogConfig          `yaml:"log,omitempty"`

	filePath string `yaml:"-"`
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Profiles: map[string]Profile{},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnCodeSent: true,
			OnFailure:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadFrom loads the configuration from a specific path.
// A missing file yields the default (empty) configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.filePath = path

	// #nosec G304 - path is the config file path (controlled, from the config directory)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	if cfg.CallTimeout < 0 {
		return nil, fmt.Errorf("invalid call_timeout %s: must not be negative", cfg.CallTimeout)
	}

	return cfg, nil
}

// Load loads the configuration file of the given paths.
func Load(paths Paths) (*Config, error) {
	return LoadFrom(paths.ConfigFile)
}

// FilePath returns the path this config was loaded from.
func (c *Config) FilePath() string {
	return c.filePath
}

// Profile returns a profile by name.
func (c *Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetURL returns the router URL, falling back to DefaultURL.
func (p Profile) GetURL() string {
	if p.URL != "" {
		return p.URL
	}
	return DefaultURL
}

// GetPrivateKey returns the private key file name, falling back to DefaultPrivateKeyFile.
func (p Profile) GetPrivateKey() string {
	if p.PrivateKey != "" {
		return p.PrivateKey
	}
	return DefaultPrivateKeyFile
}

// GetPublicKey returns the public key file name, falling back to DefaultPublicKeyFile.
func (p Profile) GetPublicKey() string {
	if p.PublicKey != "" {
		return p.PublicKey
	}
	return DefaultPublicKeyFile
}

// ValidateURL validates that the profile URL is a ws or wss URL with a host.
func (p Profile) ValidateURL() error {
	parsed, err := url.Parse(p.GetURL())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return fmt.Errorf("%w: url must use ws or wss scheme, got %q", ErrInvalidURL, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: url must have a host", ErrInvalidURL)
	}

	return nil
}
