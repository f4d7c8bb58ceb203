package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/executor"
	"github.com/crossbario/crossbar-shell/internal/log"
	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/shell"
)

// newShellCmd creates the shell command.
func (cli *CLI) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		Long: `Authenticate and start an interactive shell on the session.

Type "help" in the shell to list its commands. Ctrl-C cancels the running
command; Ctrl-C twice at the prompt, Ctrl-D or "exit" leaves the shell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runShell(cmd.Context())
		},
	}
}

// runShell authenticates and runs the command loop until the user leaves.
func (cli *CLI) runShell(ctx context.Context) error {
	outcome, err := cli.authenticate(ctx, "", false)
	if err != nil {
		return err
	}
	if !outcome.Succeeded() {
		return exitError(outcome.ExitCode())
	}

	if err := cli.State.SetSession(outcome.Session); err != nil {
		_ = outcome.Session.Close()
		return err
	}
	defer func() {
		if err := cli.State.CloseSession(); err != nil {
			cli.Logger.Debug("failed to close session", "error", err)
		}
	}()

	d := &dispatcher{
		state:    cli.State,
		executor: executor.New(executor.WithLogger(log.WithComponent(cli.Logger, "executor"))),
		renderer: render.NewRenderer(),
		out:      cli.Stdout,
	}

	loop := &shell.Loop{
		State:      cli.State,
		Reader:     shell.NewTerminalReader(cli.Stdin, cli.Stdout, cli.Paths.HistoryFile),
		Dispatch:   d.Dispatch,
		Interrupts: cli.Interrupts,
		Out:        cli.Stdout,
		Err:        cli.Stderr,
		Logger:     log.WithComponent(cli.Logger, "shell"),
	}
	return loop.Run(ctx)
}
