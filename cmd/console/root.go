package main

import (
	"context"

	"github.com/jrsteele09/go-tenant-console/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	output string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Tenant-aware session console for a hosted identity backend",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")

	cmd.AddCommand(
		newSignInCommand(opts),
		newSignOutCommand(opts),
		newRegisterCommand(opts),
		newWhoAmICommand(opts),
		newRefreshCommand(opts),
		newResetPasswordCommand(opts),
		newTenantsCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// runFunc is a command body running against an initialized app.
type runFunc func(ctx context.Context, a *app, out printer, args []string) error

// withApp loads and validates the configuration, builds the app, restores the
// remembered session and runs fn. A configuration error stops the command
// before anything is contacted.
func withApp(opts *rootOptions, fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out, err := newPrinter(cmd.OutOrStdout(), opts.output)
		if err != nil {
			return err
		}
		cfg, err := config.New()
		if err != nil {
			return err
		}
		setupLogger(cfg.GetLogLevel(), cfg.GetEnv())
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		dispose := a.orch.Initialize(ctx)
		defer dispose()
		return fn(ctx, a, out, args)
	}
}
