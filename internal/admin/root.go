package admin

import (
	"context"
	"os"

	"github.com/dmitrijs2005/livedesk/internal/server/config"
	"github.com/spf13/cobra"
)

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

type rootOptions struct {
	configFile string
	connect    Connector
}

// loadConfig reads the server configuration without command-line flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var args []string
	if o.configFile != "" {
		args = []string{"-c", o.configFile}
	}
	return config.Load(args, lookupEnv)
}

// withDeps connects, runs fn and closes the connections again.
func (o *rootOptions) withDeps(ctx context.Context, fn func(*Deps) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	deps, err := o.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if deps.Close != nil {
			_ = deps.Close()
		}
	}()
	return fn(deps)
}

// NewRootCmd builds the livectl command tree. connect is used by every
// command that needs storage.
func NewRootCmd(connect Connector) *cobra.Command {
	opts := &rootOptions{connect: connect}

	root := &cobra.Command{
		Use:           "livectl",
		Short:         "livectl - operator tooling for the livedesk server",
		Long:          `Provisions encryption keys, manages sealed secret configuration and runs database migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to the server JSON configuration file")

	root.AddCommand(newGenKeyCmd())
	root.AddCommand(newSecretsCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	return root
}
