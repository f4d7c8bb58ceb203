package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/profile"
)

// ProfileListOutput represents profile list output.
type ProfileListOutput struct {
	Current  string         `json:"current"`
	Profiles []profile.Info `json:"profiles"`
}

// newProfileCmd creates the profile command group.
func (cli *CLI) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Show connection profiles",
		Long: `Show the connection profiles of the configuration file.

Profiles are edited in <config-dir>/config. Select a profile with --profile
or CBSH_PROFILE.

Examples:
  # List all profiles
  cbsh profile list

  # Show the selected profile and its key
  cbsh profile show

  # Show a profile as YAML
  cbsh profile show local --output-format yaml`,
	}

	cmd.AddCommand(
		cli.newProfileListCmd(),
		cli.newProfileShowCmd(),
	)

	return cmd
}

// newProfileListCmd creates the profile list command.
func (cli *CLI) newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all configured profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runProfileList()
		},
	}
}

// runProfileList displays all configured profiles.
func (cli *CLI) runProfileList() error {
	output := cli.NewOutputWriter()
	profiles := profile.List(cli.Config, cli.profile)

	profileList := ProfileListOutput{
		Current:  cli.profile,
		Profiles: profiles,
	}

	if len(profiles) == 0 {
		return output.Write(profileList, func(w io.Writer) {
			fmt.Fprintln(w, "No profiles configured.")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Add a profile to %s, for example:\n\n", cli.Paths.ConfigFile)
			fmt.Fprintln(w, "  profiles:")
			fmt.Fprintln(w, "    default:")
			fmt.Fprintln(w, "      url: wss://fabric.crossbario.com")
		})
	}

	return output.Write(profileList, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tURL\tREALM")

		for _, prof := range profiles {
			current := ""
			if prof.Current {
				current = "* "
			}
			realm := prof.Realm
			if realm == "" {
				realm = "-"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", current, prof.Name, prof.URL, realm)
		}

		// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
		_ = tw.Flush()

		fmt.Fprintf(w, "\n* = current profile (%s)\n", cli.profile)
	})
}

// newProfileShowCmd creates the profile show command.
func (cli *CLI) newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [NAME]",
		Short: "Show a profile and its key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cli.profile
			if len(args) == 1 {
				name = args[0]
			}
			return cli.runProfileShow(name)
		},
	}
}

// runProfileShow displays the status of one profile.
func (cli *CLI) runProfileShow(name string) error {
	status, err := profile.GetStatus(cli.Config, cli.Paths, cli.Keyring, name)
	if err != nil {
		return err
	}

	return cli.NewOutputWriter().Write(status, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Profile:\t%s\n", status.Name)
		fmt.Fprintf(tw, "URL:\t%s\n", status.URL)
		if status.Realm != "" {
			fmt.Fprintf(tw, "Realm:\t%s\n", status.Realm)
		}
		if status.Role != "" {
			fmt.Fprintf(tw, "Role:\t%s\n", status.Role)
		}
		if status.TLSSkipVerify {
			fmt.Fprintf(tw, "TLS verify:\tdisabled\n")
		}
		if status.CACert != "" {
			fmt.Fprintf(tw, "CA certificate:\t%s\n", status.CACert)
		}
		fmt.Fprintf(tw, "Private key:\t%s\n", status.PrivateKey)
		fmt.Fprintf(tw, "Public key file:\t%s\n", status.PublicKey)
		if status.KeyError != "" {
			fmt.Fprintf(tw, "Key:\t%s\n", status.KeyError)
		} else {
			fmt.Fprintf(tw, "User ID:\t%s\n", status.UserID)
			fmt.Fprintf(tw, "Public key:\t%s\n", status.PublicKeyHex)
		}
		// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
		_ = tw.Flush()
	})
}
