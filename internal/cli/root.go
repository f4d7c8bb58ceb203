// Package cli provides the command-line interface for cbsh.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/keyring"
	"github.com/crossbario/crossbar-shell/internal/log"
	"github.com/crossbario/crossbar-shell/internal/notify"
	"github.com/crossbario/crossbar-shell/internal/profile"
	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/shell"
	"github.com/crossbario/crossbar-shell/internal/utils"
)

// ProfileEnvVar selects the profile when --profile is not given.
const ProfileEnvVar = "CBSH_PROFILE"

// ExitError carries a process exit code to main. Its message has already
// been reported to the user.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exitError maps an exit code to the error returned from a command.
func exitError(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// CLI holds the application state for the CLI.
type CLI struct {
	Keyring  keyring.Store
	Dial     Dialer
	Notifier notify.Notifier

	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Interrupts <-chan os.Signal

	// Set by initialize.
	Paths    config.Paths
	Config   *config.Config
	Resolver *profile.Resolver
	State    *shell.Context
	Logger   *slog.Logger

	rootCmd *cobra.Command
	logFile io.Closer
	profile string

	// Flags
	profileFlag   string
	configDirFlag string
	formatFlag    string
	verbosityFlag string
	styleFlag     string
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{
		Keyring: keyring.DefaultStore(),
		Dial:    DialWAMP,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  log.Discard(),
	}

	cli.rootCmd = &cobra.Command{
		Use:   "cbsh [command]",
		Short: "Crossbar.io Fabric Shell",
		Long: `cbsh is an interactive shell for Crossbar.io Fabric.

It authenticates against the Fabric router with the ed25519 key of a profile,
then runs commands against the management API over a single session.

Getting started:
  1. Generate a key:     cbsh key generate --user-id you@example.com
  2. Request a code:     cbsh auth
  3. Activate the key:   cbsh auth --code XXXX-XXXX-XXXX
  4. Start the shell:    cbsh shell`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Global flags
	flags := cli.rootCmd.PersistentFlags()
	flags.StringVarP(&cli.profileFlag, "profile", "p", "", "Use a specific profile (default \"default\", env CBSH_PROFILE)")
	flags.StringVar(&cli.configDirFlag, "config-dir", "", "Configuration directory (default ~/.cbf, env CBSH_CONFIG_DIR)")
	flags.StringVar(&cli.formatFlag, render.OptionFormat, "", "Output format (json, json-color, yaml, yaml-color, plain)")
	flags.StringVar(&cli.verbosityFlag, render.OptionVerbosity, "", "Output verbosity (silent, result-only, normal, extended)")
	flags.StringVar(&cli.styleFlag, render.OptionStyle, "", "Highlighting style for colored output formats")

	_ = cli.rootCmd.RegisterFlagCompletionFunc("profile", cli.completeProfileNames)

	cli.addCommands()

	return cli
}

// addCommands adds all subcommands to the root command.
func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.newVersionCmd(),
		cli.newAuthCmd(),
		cli.newShellCmd(),
		cli.newProfileCmd(),
		cli.newKeyCmd(),
		cli.newDoctorCmd(),
		cli.newCompletionCmd(),
	)
}

// skipsInitialization reports whether cmd runs without the configuration.
func skipsInitialization(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "completion", "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}

// initialize loads configuration and sets up the CLI.
func (cli *CLI) initialize(cmd *cobra.Command) error {
	if skipsInitialization(cmd) {
		return nil
	}

	paths, err := config.GetPaths(cli.configDirFlag)
	if err != nil {
		return err
	}
	cli.Paths = paths
	cli.Resolver = profile.NewResolver(paths, cli.Keyring)

	cfg, err := cli.Resolver.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cli.Config = cfg

	if err := cli.setupLogger(); err != nil {
		return err
	}

	cli.profile = cli.profileFlag
	if cli.profile == "" {
		// Security: Validate profile name format before using it in messages
		if envProfile := os.Getenv(ProfileEnvVar); envProfile != "" {
			if utils.IsValidProfileName(envProfile) {
				cli.profile = envProfile
			} else {
				cli.Logger.Warn("ignoring invalid profile name", "env", ProfileEnvVar)
			}
		}
	}
	if cli.profile == "" {
		cli.profile = config.DefaultProfile
	}

	return cli.setupState()
}

// setupLogger builds the logger from the config file, overridden by the environment.
func (cli *CLI) setupLogger() error {
	lc := log.ApplyEnv(log.FromConfig(cli.Config.Log))
	lc.Output = cli.Stderr

	if cli.Config.Log.File != "" {
		path, err := config.ExpandHome(cli.Config.Log.File)
		if err != nil {
			return err
		}
		f, err := log.OpenFile(cli.Paths.Resolve(path))
		if err != nil {
			return err
		}
		lc.Output = f
		cli.logFile = f
	}

	cli.Logger = log.New(lc)
	return nil
}

// setupState creates the shell context, applying the output settings of the
// config file and then the flags.
func (cli *CLI) setupState() error {
	state := shell.NewContext()

	settings := []struct {
		value string
		set   func(string) error
	}{
		{cli.Config.Output.Format, state.SetOutputFormat},
		{cli.Config.Output.Verbosity, state.SetOutputVerbosity},
		{cli.Config.Output.Style, state.SetOutputStyle},
		{cli.formatFlag, state.SetOutputFormat},
		{cli.verbosityFlag, state.SetOutputVerbosity},
		{cli.styleFlag, state.SetOutputStyle},
	}
	for _, s := range settings {
		if s.value == "" {
			continue
		}
		if err := s.set(s.value); err != nil {
			return err
		}
	}

	cli.State = state
	return nil
}

// ProfileName returns the selected profile name.
func (cli *CLI) ProfileName() string {
	return cli.profile
}

// Execute runs the CLI with args.
func (cli *CLI) Execute(ctx context.Context, args []string) error {
	defer func() {
		if cli.logFile != nil {
			_ = cli.logFile.Close()
		}
	}()

	cli.rootCmd.SetArgs(args)
	cli.rootCmd.SetIn(cli.Stdin)
	cli.rootCmd.SetOut(cli.Stdout)
	cli.rootCmd.SetErr(cli.Stderr)
	return cli.rootCmd.ExecuteContext(ctx)
}
