package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionShells lists the shells cobra can generate scripts for.
var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand prints a shell completion script to stdout.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script (" + fmt.Sprint(completionShells) + ")",
		Long: `Print a completion script for the given shell. Completions cover every
command and flag, including --config and --verbose.

  bash        source <(blueprints completion bash)
  zsh         blueprints completion zsh > "${fpath[1]}/_blueprints"
  fish        blueprints completion fish > ~/.config/fish/completions/blueprints.fish
  powershell  blueprints completion powershell | Out-String | Invoke-Expression

The script does not read the config file, so it can be generated before
a store is set up.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Skip the root setup so completion never loads a config file.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}

	return cmd
}
