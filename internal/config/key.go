package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Key file errors.
var (
	// ErrKeyNotFound indicates a key file doesn't exist.
	ErrKeyNotFound = errors.New("key file not found")
	// ErrInvalidKey indicates a key file is malformed.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyMismatch indicates the public key doesn't belong to the private key.
	ErrKeyMismatch = errors.New("public key does not match private key")
)

// keyFile is the on-disk layout of a key file. Private key files carry all
// fields, public key files omit the seed.
type keyFile struct {
	UserID     string `yaml:"user-id"`
	PublicKey  string `yaml:"public-key-ed25519"`
	PrivateKey string `yaml:"private-key-ed25519,omitempty"`
	CreatedAt  string `yaml:"created-at,omitempty"`
}

// Keypair is the ed25519 identity used for cryptosign authentication.
type Keypair struct {
	// UserID is presented to the router as authid.
	UserID     string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewKeypair builds a keypair from a 32-byte seed.
func NewKeypair(userID string, seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{
		UserID:     userID,
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
	}, nil
}

// NewKeypairFromHex builds a keypair from a hex-encoded seed.
func NewKeypairFromHex(userID, seedHex string) (*Keypair, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(seedHex))
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not hex: %v", ErrInvalidKey, err)
	}
	return NewKeypair(userID, seed)
}

// GenerateKeypair creates a fresh random keypair.
func GenerateKeypair(userID string) (*Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKeypair(userID, seed)
}

// PublicKeyHex returns the hex-encoded public key.
func (k *Keypair) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKey)
}

// SeedHex returns the hex-encoded private key seed.
func (k *Keypair) SeedHex() string {
	return hex.EncodeToString(k.PrivateKey.Seed())
}

// Sign signs a challenge with the private key.
func (k *Keypair) Sign(challenge []byte) []byte {
	return ed25519.Sign(k.PrivateKey, challenge)
}

func readKeyFile(path string) (*keyFile, error) {
	// #nosec G304 - key paths come from the profile configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var kf keyFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKey, path, err)
	}
	return &kf, nil
}

// LoadPublicKey reads a public key file and returns the user id and key.
func LoadPublicKey(path string) (string, ed25519.PublicKey, error) {
	kf, err := readKeyFile(path)
	if err != nil {
		return "", nil, err
	}

	pub, err := hex.DecodeString(strings.TrimSpace(kf.PublicKey))
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return "", nil, fmt.Errorf("%w: %s: malformed public-key-ed25519", ErrInvalidKey, path)
	}
	return kf.UserID, ed25519.PublicKey(pub), nil
}

// LoadKeypair reads a private key file. When pubPath names an existing file
// its key must match the private key.
func LoadKeypair(privPath, pubPath string) (*Keypair, error) {
	kf, err := readKeyFile(privPath)
	if err != nil {
		return nil, err
	}
	if kf.PrivateKey == "" {
		return nil, fmt.Errorf("%w: %s: missing private-key-ed25519", ErrInvalidKey, privPath)
	}

	kp, err := NewKeypairFromHex(kf.UserID, kf.PrivateKey)
	if err != nil {
		return nil, err
	}

	if pubPath == "" {
		return kp, nil
	}
	if err := kp.CheckPublicKey(pubPath); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	return kp, nil
}

// CheckPublicKey verifies that the public key file at path belongs to k.
func (k *Keypair) CheckPublicKey(path string) error {
	userID, pub, err := LoadPublicKey(path)
	if err != nil {
		return err
	}
	if !pub.Equal(k.PublicKey) {
		return fmt.Errorf("%w: %s", ErrKeyMismatch, path)
	}
	if k.UserID == "" {
		k.UserID = userID
	}
	return nil
}

// WritePublicKey writes the public half of k to path.
func (k *Keypair) WritePublicKey(path string) error {
	return writeKeyFile(path, keyFile{
		UserID:    k.UserID,
		PublicKey: k.PublicKeyHex(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, 0644)
}

// WritePrivateKey writes k including its seed to path.
func (k *Keypair) WritePrivateKey(path string) error {
	return writeKeyFile(path, keyFile{
		UserID:     k.UserID,
		PublicKey:  k.PublicKeyHex(),
		PrivateKey: k.SeedHex(),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}, 0600)
}

func writeKeyFile(path string, kf keyFile, perm os.FileMode) error {
	data, err := yaml.Marshal(kf)
	if err != nil {
		return fmt.Errorf("failed to marshal key file: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
