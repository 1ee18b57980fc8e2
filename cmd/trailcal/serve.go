package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "trailcal/internal/log"
	"trailcal/internal/store"
	"trailcal/internal/web"
)

func newServeCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the output tree over HTTP and recompile on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"recompile", cfg.Recompile,
		"seeds_dir", cfg.SeedsDir,
		"output_dir", cfg.OutputDir,
		"strict", cfg.StrictMode(),
		"ics", cfg.ICSEnabled(),
	)

	var (
		srv *web.Server
		mu  sync.Mutex
	)
	recompile := func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		snap, err := build(ctx, cfg, time.Now())
		if err != nil {
			return err
		}
		srv.Publish(snap)
		return nil
	}
	srv = web.NewServer(cfg, recompile)

	if err := recompile(ctx); err != nil {
		appLog.Error("initial compile failed, serving previous output", err, "output_dir", cfg.OutputDir)
		files, rerr := store.Read(cfg.OutputDir)
		if rerr != nil {
			appLog.Error("no previous output to serve", rerr, "output_dir", cfg.OutputDir)
		} else {
			var modTime time.Time
			if info, serr := os.Stat(cfg.OutputDir); serr == nil {
				modTime = info.ModTime()
			}
			srv.Publish(&web.Snapshot{Files: files, CompiledAt: modTime})
		}
	}

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.Recompile, func() {
		if err := recompile(ctx); err != nil {
			appLog.Error("scheduled recompile failed", err)
		}
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	return srv.ListenAndServe(ctx)
}
