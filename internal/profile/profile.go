// Package profile resolves named connection profiles and their keypairs.
package profile

import (
	"errors"
	"fmt"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/utils"
)

var (
	// ErrProfileNotFound indicates the named profile is not configured.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidName indicates a profile name with unsafe characters.
	ErrInvalidName = errors.New("invalid profile name")
)

// Profile is a named connection profile.
// It embeds config.Profile, so GetURL, GetPrivateKey and the other
// accessors are available directly.
type Profile struct {
	Name string
	config.Profile
}

// Validate validates the profile configuration.
func (p *Profile) Validate() error {
	if !utils.IsValidProfileName(p.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, p.Name)
	}
	return p.ValidateURL()
}
