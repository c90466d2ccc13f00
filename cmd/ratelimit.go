package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stargazerhq/stargazer/config"
	"github.com/stargazerhq/stargazer/internal/gh"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display the current GitHub API quota: remaining requests, ceiling, and reset time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRateLimit(cmd, opts)
		},
	}
}

func runRateLimit(cmd *cobra.Command, opts *Options) error {
	token := config.GetGitHubToken(opts.Token)

	client, err := gh.NewClient(cmd.Context(), token)
	if err != nil {
		return err
	}

	status, err := client.RateLimitStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limit status: %w", err)
	}

	resetIn := time.Until(status.ResetAt).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "GitHub API rate limit:")
	fmt.Fprintf(w, "  %d/%d remaining (resets in %s)\n", status.Remaining, status.Limit, resetIn)
	if !client.Authenticated() {
		fmt.Fprintln(w, "  (unauthenticated; set GITHUB_TOKEN for the 5000/hour quota)")
	}
	return nil
}
