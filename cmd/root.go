package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stargazerhq/stargazer/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "stargazer",
		Short: "Extract stargazer and forker data from a GitHub repository",
		Long: `A CLI tool that walks a repository's stargazer and forker lists through
the GitHub REST API, optionally enriching each user with full profile data
and recovering email addresses GitHub does not expose directly.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Initialize(opts.Verbosity, os.Stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().StringVar(&opts.Token, "token", "", "GitHub token (defaults to GITHUB_TOKEN env)")

	// Register subcommands
	rootCmd.AddCommand(NewCmdExtract(opts))
	rootCmd.AddCommand(NewCmdRateLimit(opts))
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
