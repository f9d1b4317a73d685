package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appLog "netsched/internal/log"
	"netsched/internal/monitor"
	"netsched/internal/telemetry"
	"netsched/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schedule API and run the on-air monitor",
	Long: `Start the HTTP API (JSON, iCalendar feed, Prometheus metrics) and the
cron-driven monitor that logs nets as they go on the air.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	if serveListen != "" {
		e.cfg.Listen = serveListen
	}

	appLog.Info("netsched starting",
		"version", version,
		"listen", e.cfg.Listen,
		"timezone", e.loc.String(),
		"refresh", e.cfg.RefreshCron,
		"region", e.catalog.Region,
		"net_count", len(e.catalog.Nets),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	metrics := telemetry.New()
	metrics.CatalogNets.Set(float64(len(e.catalog.Nets)))

	now := func() time.Time { return time.Now().In(e.loc) }
	mon := monitor.New(e.resolver, now, metrics)
	srv := web.NewServer(web.Options{
		Config:   e.cfg,
		Resolver: e.resolver,
		Source:   e.catalog.Source,
		Region:   e.catalog.Region,
		Now:      now,
		Location: e.loc,
		Metrics:  metrics,
	})

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() { runErr = err })
		cancel()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		fail(mon.Run(ctx, e.cfg.RefreshCron, e.loc))
	}()
	go func() {
		defer wg.Done()
		fail(web.StartServer(ctx, srv))
	}()
	wg.Wait()

	if runErr != nil {
		appLog.Error("netsched stopped with error", runErr)
		return runErr
	}
	appLog.Info("netsched exiting")
	return nil
}
