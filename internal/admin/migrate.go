package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, opts, "Applying migrations...", "Schema is up to date", Migrator.Up)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, opts, "Rolling back...", "Rolled back one migration", Migrator.Down)
		},
	})
	return cmd
}

func runMigration(cmd *cobra.Command, opts *rootOptions, progress, done string, step func(Migrator, context.Context) error) error {
	return opts.withDeps(cmd.Context(), func(d *Deps) error {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " " + progress
		_ = s.Color("cyan")
		s.Start()
		err := step(d.Migrator, cmd.Context())
		s.Stop()

		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" "+done)
		return nil
	})
}
