package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	syncForceFlag  bool
	syncDaemonFlag bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "reconcile the local store with the remote service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if !syncDaemonFlag {
			if err := a.updater.Update(cmd.Context(), syncForceFlag); err != nil {
				return err
			}
			fmt.Println("sync:", a.updater.Status())

			return nil
		}

		return runDaemon(cmd.Context(), a)
	},
}

// runDaemon keeps the periodic sync loop alive until an interrupt or
// termination signal arrives.
func runDaemon(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.updater.Update(ctx, syncForceFlag)
	})
	g.Go(func() error {
		a.updater.Start(ctx)
		<-ctx.Done()
		a.updater.Stop()

		return nil
	})

	a.logger.Info("daemon started", "interval", time.Duration(a.cfg.SyncInterval))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func init() {
	syncCmd.Flags().BoolVarP(&syncForceFlag, "force", "f", false, "sync even when the remote reports no changes")
	syncCmd.Flags().BoolVarP(&syncDaemonFlag, "daemon", "d", false, "keep syncing on the configured interval")
	rootCmd.AddCommand(syncCmd)
}
