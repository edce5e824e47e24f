package admin

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSecretsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage secret configuration entries",
	}
	cmd.AddCommand(newSecretsSetCmd(opts))
	cmd.AddCommand(newSecretsGetCmd(opts))
	cmd.AddCommand(newSecretsListCmd(opts))
	cmd.AddCommand(newSecretsDeleteCmd(opts))
	return cmd
}

func newSecretsSetCmd(opts *rootOptions) *cobra.Command {
	var (
		plain       bool
		description string
	)
	cmd := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store a value, sealed unless --plain is given",
		Long:  `Stores VALUE under KEY. Without VALUE it is read from the terminal without echo, or from stdin.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				v, err := readSecretValue(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				value = v
			}

			return opts.withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Secrets.Set(cmd.Context(), key, value, !plain, description); err != nil {
					if errors.Is(err, common.ErrorInvalidArgument) {
						return fmt.Errorf("invalid key %q", key)
					}
					return err
				}
				state := "sealed"
				if plain {
					state = "plain"
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" Stored "+color.YellowString(key)+" ("+state+")")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "store the value unsealed")
	cmd.Flags().StringVarP(&description, "description", "d", "", "human readable description")
	return cmd
}

func newSecretsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the decrypted value of KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDeps(cmd.Context(), func(d *Deps) error {
				v, err := d.Secrets.GetStrict(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, common.ErrorNotFound) {
						return fmt.Errorf("%s: not found", args[0])
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

func newSecretsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entry keys and metadata; values are never shown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDeps(cmd.Context(), func(d *Deps) error {
				entries, err := d.Secrets.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no entries")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tSEALED\tUPDATED\tDESCRIPTION")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", e.Key, e.Sealed, e.UpdatedAt.UTC().Format(time.RFC3339), e.Description)
				}
				return tw.Flush()
			})
		},
	}
}

func newSecretsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"rm"},
		Short:   "Delete KEY; deleting an absent key succeeds",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Secrets.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" Deleted "+color.YellowString(args[0]))
				return nil
			})
		},
	}
}
