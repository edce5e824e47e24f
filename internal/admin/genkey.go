package admin

import (
	"fmt"

	"github.com/dmitrijs2005/livedesk/internal/cryptox"
	"github.com/spf13/cobra"
)

// generateKey is a seam for tests.
var generateKey = cryptox.GenerateKey

func newGenKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Print a new random master key (hex, 32 bytes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := generateKey()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
