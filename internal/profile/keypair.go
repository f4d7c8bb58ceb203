package profile

import (
	"errors"
	"fmt"
	"os"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/keyring"
)

// ErrKeyExists is returned when writing a keypair would overwrite an existing one.
var ErrKeyExists = errors.New("key already exists")

// LoadKeypair loads the profile's keypair. With Keyring set the private key
// seed comes from the keyring and the user id from the public key file.
func (p *Profile) LoadKeypair(paths config.Paths, store keyring.Store) (*config.Keypair, error) {
	privPath := paths.Resolve(p.GetPrivateKey())
	pubPath := paths.Resolve(p.GetPublicKey())

	if !p.Keyring {
		return config.LoadKeypair(privPath, pubPath)
	}

	if store == nil {
		return nil, keyring.ErrKeyringUnavailable
	}
	seed, err := store.Get(p.Name)
	if err != nil {
		if errors.Is(err, keyring.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: no private key in keyring for profile %q", config.ErrKeyNotFound, p.Name)
		}
		return nil, err
	}

	kp, err := config.NewKeypairFromHex("", seed)
	if err != nil {
		return nil, err
	}
	if err := kp.CheckPublicKey(pubPath); err != nil && !errors.Is(err, config.ErrKeyNotFound) {
		return nil, err
	}
	return kp, nil
}

// SaveKeypair writes kp as the profile's keypair. The public key file is
// always written; the seed goes to the keyring when Keyring is set, else to
// the private key file. Existing keys are only replaced with force.
func (p *Profile) SaveKeypair(paths config.Paths, store keyring.Store, kp *config.Keypair, force bool) error {
	if err := paths.EnsureDir(); err != nil {
		return err
	}

	privPath := paths.Resolve(p.GetPrivateKey())
	pubPath := paths.Resolve(p.GetPublicKey())

	if !force && p.HasKeypair(paths, store) {
		return fmt.Errorf("%w for profile %q (use --force to replace it)", ErrKeyExists, p.Name)
	}

	if p.Keyring {
		if store == nil {
			return keyring.ErrKeyringUnavailable
		}
		if err := store.Set(p.Name, kp.SeedHex()); err != nil {
			return err
		}
	} else if err := kp.WritePrivateKey(privPath); err != nil {
		return err
	}

	return kp.WritePublicKey(pubPath)
}

// HasKeypair checks if a private key is stored for this profile.
func (p *Profile) HasKeypair(paths config.Paths, store keyring.Store) bool {
	if p.Keyring {
		if store == nil {
			return false
		}
		_, err := store.Get(p.Name)
		return err == nil
	}
	_, err := os.Stat(paths.Resolve(p.GetPrivateKey()))
	return err == nil
}
