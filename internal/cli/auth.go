package cli

import (
	"github.com/spf13/cobra"
)

// newAuthCmd creates the auth command.
func (cli *CLI) newAuthCmd() *cobra.Command {
	var (
		code    string
		newCode bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate the profile's key with Crossbar.io Fabric",
		Long: `Authenticate the profile's key with Crossbar.io Fabric.

The first attempt with a new key sends an activation code to the email
address of the key's user id. Run auth again with that code to activate
the key. Once activated, auth opens a session and exits.

Exit codes:
  0  authenticated, or an activation code was sent or is pending
  1  authentication failed

Examples:
  # Request an activation code
  cbsh auth

  # Activate the key
  cbsh auth --code XXXX-XXXX-XXXX

  # Ask for a new activation code
  cbsh auth --new-code`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := cli.authenticate(cmd.Context(), code, newCode)
			if err != nil {
				return err
			}
			if outcome.Succeeded() {
				_ = outcome.Session.Close()
			}
			return exitError(outcome.ExitCode())
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Activation code received by email")
	cmd.Flags().BoolVar(&newCode, "new-code", false, "Request a new activation code")

	return cmd
}
