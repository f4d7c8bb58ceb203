package profile

import (
	"fmt"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/keyring"
)

// Get returns a profile by name from config.
func Get(cfg *config.Config, name string) (*Profile, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q (no configuration loaded)", ErrProfileNotFound, name)
	}

	p, ok := cfg.Profile(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}

	return &Profile{Name: name, Profile: p}, nil
}

// List returns information about all profiles from config, sorted by name.
func List(cfg *config.Config, current string) []Info {
	if cfg == nil {
		return nil
	}

	names := cfg.ProfileNames()
	profiles := make([]Info, 0, len(names))
	for _, name := range names {
		p := cfg.Profiles[name]
		profiles = append(profiles, Info{
			Name:    name,
			URL:     p.GetURL(),
			Realm:   p.Realm,
			Current: name == current,
		})
	}

	return profiles
}

// GetStatus returns comprehensive status information for a profile.
// A keypair that fails to load is reported in KeyError, not as an error.
func GetStatus(cfg *config.Config, paths config.Paths, store keyring.Store, name string) (*Status, error) {
	p, err := Get(cfg, name)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Name:          p.Name,
		URL:           p.GetURL(),
		Realm:         p.Realm,
		Role:          p.Role,
		PrivateKey:    paths.Resolve(p.GetPrivateKey()),
		PublicKey:     paths.Resolve(p.GetPublicKey()),
		Keyring:       p.Keyring,
		TLSSkipVerify: p.TLSSkipVerify,
		CACert:        p.CACert,
	}
	if p.Keyring {
		status.PrivateKey = keyring.ServicePrefix + " - " + p.Name
	}

	kp, err := p.LoadKeypair(paths, store)
	if err != nil {
		status.KeyError = err.Error()
		return status, nil
	}
	status.UserID = kp.UserID
	status.PublicKeyHex = kp.PublicKeyHex()

	return status, nil
}
