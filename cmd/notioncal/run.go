package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"notioncal/internal/config"
	appLog "notioncal/internal/log"
	"notioncal/internal/schedule"
	"notioncal/internal/web"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sync on a schedule and serve the status API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags, (*config.Config).Validate)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd, flags, cfg)
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, flags *globalFlags, cfg *config.Config) error {
	rec, err := newReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	runner, err := schedule.New(rec, cfg.Sync.Schedule, cfg.PassTimeout())
	if err != nil {
		return err
	}

	appLog.Info("notioncal starting", "version", version)
	runner.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)

	// First pass right away rather than one schedule interval from now.
	// Failures are logged by the runner and retried on schedule.
	g.Go(func() error {
		_, _ = runner.Trigger(gctx)
		return nil
	})

	g.Go(func() error {
		return config.Watch(gctx, flags.configPath, func(next *config.Config) {
			applyFlags(cmd, flags, next)
			opts, err := next.SyncOptions()
			if err != nil {
				appLog.Warn("config reload ignored", "error", err)
				return
			}
			runner.SetOptions(opts)
			appLog.SetLevel(appLog.Level(next.Log.Level))
			if next.Sync.Schedule != cfg.Sync.Schedule || next.Listen != cfg.Listen {
				appLog.Warn("schedule and listen changes take effect after restart")
			}
		})
	})

	g.Go(func() error {
		return web.Serve(gctx, cfg, runner)
	})

	err = g.Wait()
	// Waits for a pass in flight; passes are not cancelled on shutdown.
	runner.Stop()
	appLog.Info("notioncal exiting")
	return err
}
