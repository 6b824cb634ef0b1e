// Package cli implements cardctl, the operator command line for the card vault.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"cardvault-api/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "yaml" | "table"
	// Config is read from the environment before any command runs.
	Config *config.Config
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"yaml", "table"}

// NewRootCommand creates the cardctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cardctl",
		Short: "Card vault operator tool",
		Long:  "Inspect custom field slots and settings, and migrate the card vault database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Config == nil {
				opts.Config = config.FromEnv()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "o", "yaml", "output format (yaml|table)")

	cmd.AddCommand(NewSlotsCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
