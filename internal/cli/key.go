package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/profile"
)

// KeyOutput represents a profile's public key.
type KeyOutput struct {
	Profile    string `json:"profile"`
	UserID     string `json:"user_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"privkey"`
}

// newKeyCmd creates the key command group.
func (cli *CLI) newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the profile's ed25519 key",
		Long: `Manage the ed25519 key a profile authenticates with.

The key is stored in the profile's privkey and pubkey files in the
configuration directory, or in the OS keyring when the profile sets
keyring: true.

Examples:
  # Generate a key for the default profile
  cbsh key generate --user-id you@example.com

  # Generate a key kept in the OS keyring
  cbsh key generate --user-id you@example.com --keyring

  # Show the public key
  cbsh key show`,
	}

	cmd.AddCommand(
		cli.newKeyGenerateCmd(),
		cli.newKeyShowCmd(),
	)

	return cmd
}

// currentProfile returns the selected profile. An unconfigured profile is
// returned with default settings when allowMissing is set.
func (cli *CLI) currentProfile(allowMissing bool) (*profile.Profile, bool, error) {
	p, err := profile.Get(cli.Config, cli.profile)
	if err == nil {
		return p, true, nil
	}
	if allowMissing && errors.Is(err, profile.ErrProfileNotFound) {
		return &profile.Profile{Name: cli.profile}, false, nil
	}
	return nil, false, err
}

// newKeyGenerateCmd creates the key generate command.
func (cli *CLI) newKeyGenerateCmd() *cobra.Command {
	var (
		userID     string
		useKeyring bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key for the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return errors.New("--user-id is required")
			}

			p, configured, err := cli.currentProfile(true)
			if err != nil {
				return err
			}
			if useKeyring {
				p.Keyring = true
			}
			if p.Keyring {
				if err := cli.Keyring.IsAvailable(); err != nil {
					return err
				}
			}

			kp, err := config.GenerateKeypair(userID)
			if err != nil {
				return err
			}
			if err := p.SaveKeypair(cli.Paths, cli.Keyring, kp, force); err != nil {
				return err
			}

			out := cli.Stdout
			fmt.Fprintf(out, "Generated key for %s (profile %q)\n", userID, p.Name)
			fmt.Fprintf(out, "  public key:  %s\n", kp.PublicKeyHex())
			fmt.Fprintf(out, "  private key: %s\n", cli.privateKeyLocation(p))
			if !configured {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Profile %q is not configured yet. Add it to %s", p.Name, cli.Paths.ConfigFile)
				if p.Keyring {
					fmt.Fprint(out, " with keyring: true")
				}
				fmt.Fprintln(out, ".")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Email address the key is registered for")
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "Store the private key in the OS keyring")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing key")

	return cmd
}

// newKeyShowCmd creates the key show command.
func (cli *CLI) newKeyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile's user id and public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := cli.currentProfile(true)
			if err != nil {
				return err
			}

			kp, err := p.LoadKeypair(cli.Paths, cli.Keyring)
			if err != nil {
				return err
			}

			data := KeyOutput{
				Profile:    p.Name,
				UserID:     kp.UserID,
				PublicKey:  kp.PublicKeyHex(),
				PrivateKey: cli.privateKeyLocation(p),
			}
			return cli.NewOutputWriter().Write(data, func(w io.Writer) {
				fmt.Fprintf(w, "user-id:            %s\n", data.UserID)
				fmt.Fprintf(w, "public-key-ed25519: %s\n", data.PublicKey)
			})
		},
	}
}

func (cli *CLI) privateKeyLocation(p *profile.Profile) string {
	if p.Keyring {
		return "OS keyring"
	}
	return cli.Paths.Resolve(p.GetPrivateKey())
}
