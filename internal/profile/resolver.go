package profile

import (
	"fmt"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/keyring"
	"github.com/crossbario/crossbar-shell/internal/utils"
)

// Resolver loads profiles and keypairs from one configuration directory.
type Resolver struct {
	paths config.Paths
	store keyring.Store
	cfg   *config.Config
}

// NewResolver creates a Resolver for paths. The store serves profiles that
// keep their private key in the keyring.
func NewResolver(paths config.Paths, store keyring.Store) *Resolver {
	return &Resolver{
		paths: paths,
		store: store,
	}
}

// Paths returns the resolver's paths.
func (r *Resolver) Paths() config.Paths {
	return r.paths
}

// Config creates the configuration directory when missing and loads the
// configuration file once.
func (r *Resolver) Config() (*config.Config, error) {
	if r.cfg != nil {
		return r.cfg, nil
	}

	if err := r.paths.EnsureDir(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(r.paths)
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	return cfg, nil
}

// Resolve returns the keypair and profile for name, which defaults to
// config.DefaultProfile. It fails with ErrProfileNotFound when the profile
// is absent from the configuration.
func (r *Resolver) Resolve(name string) (*config.Keypair, *Profile, error) {
	if name == "" {
		name = config.DefaultProfile
	}
	if !utils.IsValidProfileName(name) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	cfg, err := r.Config()
	if err != nil {
		return nil, nil, err
	}

	p, err := Get(cfg, name)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, nil, fmt.Errorf("profile %q: %w", name, err)
	}

	kp, err := p.LoadKeypair(r.paths, r.store)
	if err != nil {
		return nil, nil, fmt.Errorf("profile %q: %w", name, err)
	}

	return kp, p, nil
}
