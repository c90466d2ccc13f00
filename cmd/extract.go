package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stargazerhq/stargazer/config"
	"github.com/stargazerhq/stargazer/internal/cache"
	"github.com/stargazerhq/stargazer/internal/extract"
	"github.com/stargazerhq/stargazer/internal/gh"
	"github.com/stargazerhq/stargazer/internal/log"
	"github.com/stargazerhq/stargazer/internal/output"
)

// NewCmdExtract creates the extract command.
func NewCmdExtract(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <owner/repo or URL>",
		Short: "Extract stargazer and forker data from a repository",
		Long: `Fetches repository metadata plus its stargazer and forker lists. With
--detailed each user's full profile is fetched; with --emails the tool
additionally probes commits and public events to recover email addresses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json, yaml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.NoStargazers, "no-stargazers", false, "Skip the stargazer list")
	cmd.Flags().BoolVar(&opts.NoForkers, "no-forkers", false, "Skip the forker list")
	cmd.Flags().IntVar(&opts.MaxStargazers, "max-stargazers", 0, "Maximum stargazers to fetch (0 = all)")
	cmd.Flags().IntVar(&opts.MaxForkers, "max-forkers", 0, "Maximum forkers to fetch (0 = all)")
	cmd.Flags().BoolVarP(&opts.Detailed, "detailed", "d", false, "Fetch full profile details per user")
	cmd.Flags().BoolVarP(&opts.ResolveEmails, "emails", "e", false, "Attempt email resolution per user")
	cmd.Flags().BoolVar(&opts.Aggressive, "aggressive", false, "Enable the expensive commit-search email fallback")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent enrichment workers (default from config)")
	cmd.Flags().BoolVar(&opts.WaitForReset, "wait", false, "Sleep through quota resets instead of failing")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the user profile cache")

	return cmd
}

func runExtract(cmd *cobra.Command, repoID string, opts *Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := config.GetGitHubToken(opts.Token)
	if token == "" {
		log.Warn("no GitHub token configured, using the 60/hour unauthenticated quota")
	}

	client, err := gh.NewClient(ctx, token, gh.WithWaitForReset(opts.WaitForReset || cfg.WaitForReset))
	if err != nil {
		return err
	}

	var userCache *cache.Cache
	if !opts.NoCache {
		userCache, err = cache.New()
		if err != nil {
			log.Warn("user cache unavailable", "error", err)
		}
	}

	workers := opts.Workers
	if workers == 0 {
		workers = cfg.Workers
	}

	extractor := extract.NewExtractor(client, userCache)
	result, err := extractor.Extract(ctx, repoID, extract.Options{
		IncludeStargazers:         !opts.NoStargazers,
		IncludeForkers:            !opts.NoForkers,
		MaxStargazers:             opts.MaxStargazers,
		MaxForkers:                opts.MaxForkers,
		DetailedUserInfo:          opts.Detailed,
		ResolveEmails:             opts.ResolveEmails,
		AggressiveEmailExtraction: opts.Aggressive,
		Workers:                   workers,
	})
	if err != nil {
		return describeFailure(err)
	}

	format := output.Format(opts.Format)
	if format == "" {
		format = output.Format(cfg.DefaultFormat)
	}

	w := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return output.NewFormatter(format).Format(result, w)
}

// describeFailure adds an actionable hint for the error kinds a caller is
// expected to branch on.
func describeFailure(err error) error {
	switch {
	case gh.IsNotFound(err):
		return fmt.Errorf("%w\nMake sure the repository exists and is public", err)
	case gh.IsUnauthorized(err):
		return fmt.Errorf("%w\nThe provided token is invalid or expired", err)
	case gh.IsRateLimited(err):
		return fmt.Errorf("%w\nPass --wait to sleep through the reset, or use a token for the 5000/hour quota", err)
	default:
		return err
	}
}
