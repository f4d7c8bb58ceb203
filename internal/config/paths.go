// Package config provides configuration management for the Crossbar.io shell.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is the application name.
	AppName = "cbsh"
	// DefaultDir is the configuration directory used when nothing overrides it.
	DefaultDir = "~/.cbf"
	// ConfigFileName is the name of the profile configuration file.
	ConfigFileName = "config"
	// HistoryFileName is the name of the shell history file.
	HistoryFileName = "history"
	// DirEnvVar overrides the configuration directory.
	DirEnvVar = "CBSH_CONFIG_DIR"
)

// Paths holds all the application paths derived from one configuration directory.
type Paths struct {
	ConfigDir   string
	ConfigFile  string
	HistoryFile string
}

// GetPaths resolves the application paths. The override (usually the
// --config-dir flag) wins over CBSH_CONFIG_DIR, which wins over ~/.cbf.
func GetPaths(override string) (Paths, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv(DirEnvVar)
	}
	if dir == "" {
		dir = DefaultDir
	}

	expanded, err := ExpandHome(dir)
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		ConfigDir:   expanded,
		ConfigFile:  filepath.Join(expanded, ConfigFileName),
		HistoryFile: filepath.Join(expanded, HistoryFileName),
	}, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// EnsureDir creates the configuration directory if it doesn't exist.
// Only the directory itself is created, never any file inside it.
func (p Paths) EnsureDir() error {
	if p.ConfigDir == "" {
		return errors.New("config directory not set")
	}

	info, err := os.Stat(p.ConfigDir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("config path %q is not a directory", p.ConfigDir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access config directory: %w", err)
	}

	if err := os.MkdirAll(p.ConfigDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// Resolve returns path unchanged when absolute, otherwise relative to the config directory.
func (p Paths) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ConfigDir, path)
}
