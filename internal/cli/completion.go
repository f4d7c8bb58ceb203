package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/utils"
)

// newCompletionCmd creates the completion command.
func (cli *CLI) newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for cbsh.

Besides commands and flags, the scripts complete the profile names of
--profile from the config file (~/.cbf/config, or the one in --config-dir).

To load completions:

Bash:
  $ source <(cbsh completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ cbsh completion bash > /etc/bash_completion.d/cbsh
  # macOS:
  $ cbsh completion bash > $(brew --prefix)/etc/bash_completion.d/cbsh

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ cbsh completion zsh > "${fpath[1]}/_cbsh"
  # You may need to start a new shell for this to take effect.

Fish:
  $ cbsh completion fish | source
  # To load completions for each session, execute once:
  $ cbsh completion fish > ~/.config/fish/completions/cbsh.fish

PowerShell:
  PS> cbsh completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> cbsh completion powershell > cbsh.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}

// completeProfileNames lists the profiles of the config file for --profile.
func (cli *CLI) completeProfileNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	paths, err := config.GetPaths(cli.configDirFlag)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	cfg, err := config.Load(paths)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, name := range cfg.ProfileNames() {
		if utils.IsValidProfileName(name) && strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
