package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cardvault-api/internal/collection"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/db"
	"cardvault-api/internal/store"
)

// NewSlotsCommand prints the slot universe of a kind with default settings.
func NewSlotsCommand(opts *RootOptions) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List the custom field slots of a kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := customfield.ParseKind(kind)
			if err != nil {
				return err
			}
			rows, err := collection.New(store.NewMemoryStore()).Schema(cmd.Context(), uuid.Nil, k)
			if err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), opts.Format, rowsFrom(rows))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(customfield.KindCard), "card | deck | pack")
	return cmd
}

// NewSettingsCommand prints the stored settings of one owner and kind.
func NewSettingsCommand(opts *RootOptions) *cobra.Command {
	var (
		owner string
		kind  string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show a user's field settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("--owner: %w", err)
			}
			k, err := customfield.ParseKind(kind)
			if err != nil {
				return err
			}
			drv, closeDB, err := db.Open(opts.Config)
			if err != nil {
				return err
			}
			defer closeDB()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			rows, err := collection.New(store.NewSQLStore(drv)).Schema(ctx, uid, k)
			if err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), opts.Format, rowsFrom(rows))
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "user id")
	cmd.Flags().StringVar(&kind, "kind", string(customfield.KindCard), "card | deck | pack")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// NewMigrateCommand creates or upgrades the database tables.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, closeDB, err := db.Open(opts.Config)
			if err != nil {
				return err
			}
			defer closeDB()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := db.Migrate(ctx, drv); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables (%s)\n", len(db.Tables), opts.Config.DB.Driver)
			return nil
		},
	}
}
