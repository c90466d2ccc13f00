package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stargazerhq/stargazer/internal/cache"
)

// NewCmdCache creates the cache command.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the user profile cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear all cached user profiles",
		RunE:  runCacheClear,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE:  runCacheStats,
	})
	return cmd
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := cache.New()
	if err != nil {
		return fmt.Errorf("failed to access cache: %w", err)
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := cache.New()
	if err != nil {
		return fmt.Errorf("failed to access cache: %w", err)
	}
	total, valid, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "User profile cache:")
	fmt.Fprintf(w, "  Total:   %d\n", total)
	fmt.Fprintf(w, "  Valid:   %d\n", valid)
	fmt.Fprintf(w, "  Expired: %d\n", total-valid)
	return nil
}
