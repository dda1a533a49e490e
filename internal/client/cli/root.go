package cli

import (
	"bufio"
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bodykeeper/internal/client/config"
	"github.com/dmitrijs2005/bodykeeper/internal/client/remote"
)

// newApp is a test seam for NewApp.
var newApp = NewApp

// withApp opens the application for the duration of fn.
func withApp(ctx context.Context, cfg *config.Config, fn func(ctx context.Context, a *App) error) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close(context.WithoutCancel(ctx))
	}()
	return fn(ctx, a)
}

// NewRootCmd builds the command tree. Without a subcommand the interactive
// session is started.
//
// Configuration flags (-c, -d, -b, -r, -i) have already been consumed by
// config.LoadConfig, so cobra only has to tolerate them.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "bodykeeper",
		Short:        "Offline-first body-fat journal with cloud sync",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, a *App) error {
				a.reader = bufio.NewReader(cmd.InOrStdin())
				a.out = cmd.OutOrStdout()
				a.Root(ctx)
				return nil
			})
		},
	}
	root.PersistentFlags().StringP("config", "c", "", "path to a JSON or YAML config file")
	tolerateConfigFlags(root)

	root.AddCommand(newSyncCmd(cfg), newListCmd(cfg))
	return root
}

func tolerateConfigFlags(cmd *cobra.Command) {
	cmd.FParseErrWhitelist = cobra.FParseErrWhitelist{UnknownFlags: true}
}

func newSyncCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print its result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, a *App) error {
				res, err := a.service.SyncNow(ctx)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res)
				switch {
				case res.Unavailable:
					return remote.ErrCloudUnavailable
				case !res.Completed():
					return errors.New(res.String())
				}
				return nil
			})
		},
	}
	tolerateConfigFlags(cmd)
	return cmd
}

func newListCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List measurements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, a *App) error {
				list, err := a.service.List(ctx)
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
	tolerateConfigFlags(cmd)
	return cmd
}
