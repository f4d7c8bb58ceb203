package config

import (
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateAndLoadKeypair(t *testing.T) {
	tmpDir := t.TempDir()
	privPath := filepath.Join(tmpDir, "default.priv")
	pubPath := filepath.Join(tmpDir, "default.pub")

	kp, err := GenerateKeypair("alice@example.com")
	if err != nil {
		t.Fatalf("GenerateKeypair() failed: %v", err)
	}
	if err := kp.WritePrivateKey(privPath); err != nil {
		t.Fatalf("WritePrivateKey() failed: %v", err)
	}
	if err := kp.WritePublicKey(pubPath); err != nil {
		t.Fatalf("WritePublicKey() failed: %v", err)
	}

	info, err := os.Stat(privPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadKeypair(privPath, pubPath)
	if err != nil {
		t.Fatalf("LoadKeypair() failed: %v", err)
	}
	if loaded.UserID != "alice@example.com" {
		t.Errorf("UserID = %s", loaded.UserID)
	}
	if !loaded.PublicKey.Equal(kp.PublicKey) {
		t.Error("loaded public key differs")
	}

	// Signatures verify with the public key.
	challenge := []byte("0123456789abcdef0123456789abcdef")
	sig := loaded.Sign(challenge)
	if !ed25519.Verify(kp.PublicKey, challenge, sig) {
		t.Error("signature does not verify")
	}
}

func TestLoadKeypairMissingPublicKeyIsFine(t *testing.T) {
	tmpDir := t.TempDir()
	privPath := filepath.Join(tmpDir, "default.priv")

	kp, _ := GenerateKeypair("bob@example.com")
	if err := kp.WritePrivateKey(privPath); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadKeypair(privPath, filepath.Join(tmpDir, "missing.pub")); err != nil {
		t.Errorf("LoadKeypair() without public key file failed: %v", err)
	}
}

func TestLoadKeypairErrors(t *testing.T) {
	tmpDir := t.TempDir()

	kp, _ := GenerateKeypair("alice@example.com")
	other, _ := GenerateKeypair("mallory@example.com")

	privPath := filepath.Join(tmpDir, "alice.priv")
	otherPub := filepath.Join(tmpDir, "mallory.pub")
	if err := kp.WritePrivateKey(privPath); err != nil {
		t.Fatal(err)
	}
	if err := other.WritePublicKey(otherPub); err != nil {
		t.Fatal(err)
	}

	noSeed := filepath.Join(tmpDir, "noseed.priv")
	os.WriteFile(noSeed, []byte("user-id: x\npublic-key-ed25519: 00\n"), 0600)

	badHex := filepath.Join(tmpDir, "badhex.priv")
	os.WriteFile(badHex, []byte("user-id: x\nprivate-key-ed25519: zz\n"), 0600)

	shortSeed := filepath.Join(tmpDir, "short.priv")
	os.WriteFile(shortSeed, []byte("user-id: x\nprivate-key-ed25519: 0011\n"), 0600)

	tests := []struct {
		name    string
		priv    string
		pub     string
		wantErr error
	}{
		{"missing private key", filepath.Join(tmpDir, "nope.priv"), "", ErrKeyNotFound},
		{"mismatched public key", privPath, otherPub, ErrKeyMismatch},
		{"no seed", noSeed, "", ErrInvalidKey},
		{"bad hex", badHex, "", ErrInvalidKey},
		{"short seed", shortSeed, "", ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKeypair(tt.priv, tt.pub)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadKeypair() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeypairHex(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	kp, err := NewKeypair("carol@example.com", seed)
	if err != nil {
		t.Fatal(err)
	}

	if kp.SeedHex() != "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f" {
		t.Errorf("SeedHex() = %s", kp.SeedHex())
	}
	if len(kp.PublicKeyHex()) != 64 {
		t.Errorf("PublicKeyHex() length = %d", len(kp.PublicKeyHex()))
	}

	again, err := NewKeypairFromHex("carol@example.com", "  "+strings.ToUpper(kp.SeedHex())+"\n")
	if err != nil {
		t.Fatalf("NewKeypairFromHex() failed: %v", err)
	}
	if !again.PublicKey.Equal(kp.PublicKey) {
		t.Error("keypair from hex differs")
	}
}
