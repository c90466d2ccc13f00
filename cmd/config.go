package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stargazerhq/stargazer/config"
)

// NewCmdConfig creates the config command.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Available keys:
  format         - Default output format (table, json, yaml)
  workers        - Default enrichment worker count
  wait_for_reset - Sleep through quota resets (true, false)`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  runConfigShow,
	})
	return cmd
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	switch key {
	case "token":
		return fmt.Errorf("tokens cannot be stored in config files for security reasons. Set the GITHUB_TOKEN environment variable instead")
	case "format":
		if value != "table" && value != "json" && value != "yaml" {
			return fmt.Errorf("invalid format: %s (must be table, json, or yaml)", value)
		}
		cfg.DefaultFormat = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid workers value: %s (must be a positive integer)", value)
		}
		cfg.Workers = n
	case "wait_for_reset":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid wait_for_reset value: %s (must be true or false)", value)
		}
		cfg.WaitForReset = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s.\n", key, value)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Config file: %s\n", config.ConfigPath())
	fmt.Fprintf(w, "  Default format: %s\n", cfg.DefaultFormat)
	fmt.Fprintf(w, "  Workers: %d\n", cfg.Workers)
	fmt.Fprintf(w, "  Wait for reset: %v\n", cfg.WaitForReset)

	if os.Getenv("GITHUB_TOKEN") != "" {
		fmt.Fprintln(w, "  GitHub token: (set via GITHUB_TOKEN env)")
	} else {
		fmt.Fprintln(w, "  GitHub token: (not set - set GITHUB_TOKEN env var)")
	}
	return nil
}
