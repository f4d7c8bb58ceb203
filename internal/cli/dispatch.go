package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/commands"
	"github.com/crossbario/crossbar-shell/internal/executor"
	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/shell"
)

// clearScreen moves the cursor home and erases the terminal.
const clearScreen = "\033[H\033[2J"

// dispatcher parses shell lines into commands run against the shell state.
type dispatcher struct {
	state    *shell.Context
	executor *executor.Executor
	renderer *render.Renderer
	out      io.Writer
}

// Dispatch implements shell.Dispatcher. Each line is parsed by a fresh
// command tree so flags never leak between lines.
func (d *dispatcher) Dispatch(ctx context.Context, line string) error {
	words, err := shellquote.Split(line)
	if err != nil {
		return fmt.Errorf("%w: %w", commands.ErrInvalidArgument, err)
	}
	if len(words) == 0 {
		return nil
	}

	root := d.newCommandTree()
	root.SetArgs(words)
	return root.ExecuteContext(ctx)
}

// run executes cmd on the session and prints the rendered result.
func (d *dispatcher) run(ctx context.Context, cmd executor.Command) error {
	result, err := d.executor.Execute(ctx, cmd, d.state.Session())
	if err != nil {
		return err
	}

	text, err := d.renderer.Render(result, d.state.Options())
	if err != nil {
		return err
	}
	if text != "" {
		fmt.Fprintln(d.out, text)
	}
	return nil
}

func (d *dispatcher) newCommandTree() *cobra.Command {
	root := &cobra.Command{
		Use:           "cbsh",
		Short:         "Crossbar.io Fabric Shell commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(d.out)
	root.SetErr(d.out)

	root.AddCommand(
		d.newCallCmd(),
		d.newSetCmd(),
		d.newSelectCmd(),
		d.newUnselectCmd(),
		d.newShowCmd(),
		&cobra.Command{
			Use:   "clear",
			Short: "Clear the screen",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprint(d.out, clearScreen)
			},
		},
		&cobra.Command{
			Use:     "exit",
			Aliases: []string{"quit"},
			Short:   "Close the session and leave the shell",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return shell.ErrExit
			},
		},
	)

	return root
}

func (d *dispatcher) newCallCmd() *cobra.Command {
	var (
		keywords []string
		filter   string
	)

	cmd := &cobra.Command{
		Use:   "call PROCEDURE [ARG...]",
		Short: "Call a remote procedure",
		Long: `Call a remote procedure on the session and print its result.

Arguments and keyword values are decoded as JSON when they parse, and are
passed as strings otherwise. Quote values containing spaces.

Examples:
  call com.crossbario.fabric.get_status
  call com.example.add 2 3
  call com.example.create --kw name=node1 --kw 'tags=["edge"]'
  call com.example.list_nodes --filter '.[].id'`,
		// Negative numbers are arguments, so flags are parsed in RunE.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flagArgs, positional := splitCallArgs(cmd, args)
			if err := cmd.Flags().Parse(flagArgs); err != nil {
				return err
			}
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}
			if len(positional) == 0 {
				return fmt.Errorf("%w: procedure is required", commands.ErrInvalidArgument)
			}

			c, err := commands.NewCall(positional[0], positional[1:], keywords, filter)
			if err != nil {
				return err
			}
			return d.run(cmd.Context(), c)
		},
	}

	cmd.Flags().StringArrayVarP(&keywords, "kw", "k", nil, "Keyword argument as key=value (repeatable)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "jq expression applied to the result")

	return cmd
}

// splitCallArgs separates flag tokens, with their values, from positional
// arguments. Tokens that parse as negative numbers are positional.
func splitCallArgs(cmd *cobra.Command, tokens []string) (flagArgs, positional []string) {
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		switch {
		case token == "--":
			return flagArgs, append(positional, tokens[i+1:]...)
		case isNegativeNumber(token), len(token) < 2 || token[0] != '-':
			positional = append(positional, token)
			continue
		}

		flagArgs = append(flagArgs, token)
		if takesSeparateValue(cmd, token) && i+1 < len(tokens) {
			i++
			flagArgs = append(flagArgs, tokens[i])
		}
	}
	return flagArgs, positional
}

// takesSeparateValue reports whether the flag token expects its value in the
// following token.
func takesSeparateValue(cmd *cobra.Command, token string) bool {
	if strings.HasPrefix(token, "--") {
		name := token[2:]
		if strings.Contains(name, "=") {
			return false
		}
		f := cmd.Flags().Lookup(name)
		return f != nil && f.NoOptDefVal == ""
	}
	if len(token) != 2 {
		return false
	}
	f := cmd.Flags().ShorthandLookup(token[1:])
	return f != nil && f.NoOptDefVal == ""
}

func isNegativeNumber(token string) bool {
	if len(token) < 2 || token[0] != '-' || !(token[1] == '.' || (token[1] >= '0' && token[1] <= '9')) {
		return false
	}
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}

func (d *dispatcher) newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change shell settings",
	}

	settings := []struct {
		name    string
		allowed []string
		set     func(string) error
	}{
		{render.OptionFormat, render.FormatNames(), d.state.SetOutputFormat},
		{render.OptionVerbosity, render.VerbosityNames(), d.state.SetOutputVerbosity},
		{render.OptionStyle, nil, d.state.SetOutputStyle},
	}
	for _, s := range settings {
		short := "Set the " + strings.ReplaceAll(s.name, "-", " ")
		if s.allowed != nil {
			short += " (" + strings.Join(s.allowed, ", ") + ")"
		}
		set := s.set
		cmd.AddCommand(&cobra.Command{
			Use:       s.name + " VALUE",
			Short:     short,
			Args:      cobra.ExactArgs(1),
			ValidArgs: s.allowed,
			RunE: func(cmd *cobra.Command, args []string) error {
				return set(args[0])
			},
		})
	}

	return cmd
}

func (d *dispatcher) newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select RESOURCE_TYPE RESOURCE_ID",
		Short: "Select a resource shown in the prompt",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			d.state.Select(args[0], args[1])
		},
	}
}

func (d *dispatcher) newUnselectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unselect",
		Short: "Clear the selected resource",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			d.state.Unselect()
		},
	}
}

func (d *dispatcher) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show shell state",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "session",
			Short: "Show the session details",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return d.run(cmd.Context(), commands.SessionInfo{})
			},
		},
		&cobra.Command{
			Use:   "selected",
			Short: "Show the selected resource",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return d.run(cmd.Context(), commands.ShowSelected{State: d.state})
			},
		},
	)

	return cmd
}
