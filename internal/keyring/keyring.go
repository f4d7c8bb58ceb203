// Package keyring provides secure storage for private key seeds using the OS keyring.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/crossbario/crossbar-shell/internal/utils"
)

const (
	// ServicePrefix is the prefix used for keyring service names.
	// Each profile has its own service entry: "cbsh - <profile_name>".
	ServicePrefix = "cbsh"

	// TestKeyringEnvVar is the environment variable that, when set to a directory path,
	// selects a file-based keyring instead of the OS keyring. Tests only.
	TestKeyringEnvVar = "CBSH_TEST_KEYRING_DIR"
)

func serviceName(profile string) string {
	return ServicePrefix + " - " + profile
}

var (
	// ErrKeyringUnavailable is returned when no secure keyring is available.
	ErrKeyringUnavailable = errors.New("secure keyring is not available on this system")
	// ErrSecretNotFound is returned when no secret is stored for a key.
	ErrSecretNotFound = errors.New("secret not found in keyring")
	// ErrKeyringAccessDenied is returned when access to the keyring is denied.
	ErrKeyringAccessDenied = errors.New("access to keyring denied")
)

// Store represents a secure secret storage backend.
type Store interface {
	// Set stores a secret for the given key.
	Set(key, secret string) error
	// Get retrieves the secret for the given key.
	Get(key string) (string, error)
	// Delete removes the secret for the given key.
	Delete(key string) error
	// IsAvailable checks if the keyring is available.
	IsAvailable() error
}

// DefaultStore returns the default keyring store for the current platform.
// If CBSH_TEST_KEYRING_DIR is set, a file-based store is used instead.
func DefaultStore() Store {
	if testDir := os.Getenv(TestKeyringEnvVar); testDir != "" {
		fileStore, err := NewFileStore(testDir)
		if err != nil {
			return &osKeyring{}
		}
		return fileStore
	}
	return &osKeyring{}
}

// osKeyring implements Store using the OS keyring.
type osKeyring struct{}

// IsAvailable checks if a secure keyring is available on this system.
func (k *osKeyring) IsAvailable() error {
	_, err := gokeyring.Get(serviceName("__availability_check__"), "test")
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}

	errStr := err.Error()

	switch runtime.GOOS {
	case "linux":
		if utils.ContainsAny(errStr, "secret service", "dbus", "org.freedesktop.secrets") {
			return fmt.Errorf("%w: D-Bus secret service not available - please install and start gnome-keyring, kwallet, or another secret service provider", ErrKeyringUnavailable)
		}
	case "darwin":
		if utils.ContainsAny(errStr, "keychain", "security") {
			return fmt.Errorf("%w: macOS Keychain not accessible", ErrKeyringUnavailable)
		}
	case "windows":
		if utils.ContainsAny(errStr, "credential", "wincred") {
			return fmt.Errorf("%w: Windows Credential Manager not accessible", ErrKeyringUnavailable)
		}
	}

	// Other errors: the actual operation reports a better message.
	return nil
}

// Set stores a secret in the keyring. The key is the profile name, used as
// both service suffix and account name.
func (k *osKeyring) Set(key, secret string) error {
	if err := k.IsAvailable(); err != nil {
		return err
	}

	if key == "" {
		return errors.New("key cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	if err := gokeyring.Set(serviceName(key), key, secret); err != nil {
		return wrapKeyringError(err, "failed to store secret")
	}
	return nil
}

// Get retrieves a secret from the keyring.
func (k *osKeyring) Get(key string) (string, error) {
	if err := k.IsAvailable(); err != nil {
		return "", err
	}

	if key == "" {
		return "", errors.New("key cannot be empty")
	}

	secret, err := gokeyring.Get(serviceName(key), key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrSecretNotFound
		}
		return "", wrapKeyringError(err, "failed to retrieve secret")
	}

	return secret, nil
}

// Delete removes a secret from the keyring. Deleting a missing secret is not an error.
func (k *osKeyring) Delete(key string) error {
	if err := k.IsAvailable(); err != nil {
		return err
	}

	if key == "" {
		return errors.New("key cannot be empty")
	}

	err := gokeyring.Delete(serviceName(key), key)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return wrapKeyringError(err, "failed to delete secret")
	}
	return nil
}

// wrapKeyringError classifies a keyring error.
func wrapKeyringError(err error, context string) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if utils.ContainsAny(errStr, "denied", "permission", "not allowed", "unauthorized") {
		return fmt.Errorf("%w: %s: %v", ErrKeyringAccessDenied, context, err)
	}

	if utils.ContainsAny(errStr, "not found", "no keyring", "unavailable", "secret service") {
		return fmt.Errorf("%w: %s: %v", ErrKeyringUnavailable, context, err)
	}

	return fmt.Errorf("%s: %w", context, err)
}
