package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/accountkeeper/internal/client/config"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Execute runs the accounts CLI with os.Args.
func Execute(ctx context.Context) error {
	a := NewApp()
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown:", err)
		}
	}()
	return a.Command().ExecuteContext(ctx)
}

// Command builds the root command and its subcommands.
func (a *App) Command() *cobra.Command {
	var span trace.Span

	root := &cobra.Command{
		Use:           "accounts",
		Short:         "Manage locally stored accounts and their sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a.config = cfg

			if a.logger == nil {
				logger, err := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
				if err != nil {
					return err
				}
				a.logger = logger
			}

			ctx := cmd.Context()
			if err := a.open(ctx, cfg); err != nil {
				return err
			}
			a.relier.Context = relierContext
			a.relier.ClientID = cfg.OAuthClientID

			ctx, span = otel.Tracer(serviceName).Start(ctx, cmd.CommandPath())
			cmd.SetContext(ctx)
			a.closers = append(a.closers, func(context.Context) error {
				span.End()
				return nil
			})
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		a.signInCmd(),
		a.signUpCmd(),
		a.verifyCmd(),
		a.signOutCmd(),
		a.statusCmd(),
		a.accountsCmd(),
		a.useCmd(),
		a.removeCmd(),
		a.deleteCmd(),
		a.changePasswordCmd(),
		a.resetPasswordCmd(),
		a.devicesCmd(),
		a.disconnectCmd(),
		a.checkCmd(),
		a.rejectUnblockCmd(),
		a.watchCmd(),
	)
	root.SetOut(a.out)
	root.SetErr(os.Stderr)
	return root
}
