package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple"
	"github.com/ripple-dev/ripple/internal/config"
	"github.com/ripple-dev/ripple/pkg/inspect"
	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/rippletrace"
)

func inspectCmd() *cobra.Command {
	var (
		port  int
		host  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Start the live graph inspector with a demo workload",
		Long: `Start the live graph inspector with a demo workload.

A small sensor graph runs on its own goroutine and receives writes
every second, so the inspector always has something to show:

  /api/graph   current nodes as JSON
  /api/stats   aggregate runtime counters
  /ws          live event stream over WebSocket
  /metrics     Prometheus metrics

Address and metric naming come from ripple.json when present.

Examples:
  ripple inspect
  ripple inspect --port=8080
  ripple inspect --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(port, host, debug)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from ripple.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from ripple.json)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log every signal write and batch commit")

	return cmd
}

func runInspect(port int, host string, debug bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		if !errors.Is(err, config.ErrNoConfig) {
			return err
		}
		warn("no %s found, using defaults", config.ConfigFileName)
		cfg = config.New()
	}

	if port > 0 {
		cfg.Inspector.Port = port
	}
	if host != "" {
		cfg.Inspector.Host = host
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		ripple.SetDebug(true)
	}

	// Attach the observability hooks before the workload builds its graph.
	server := inspect.New(inspect.WithMaxValueLen(cfg.Inspector.MaxValueLen))
	removeInspector := server.Attach()
	defer removeInspector()

	registry := prometheus.NewRegistry()
	_, removeMetrics := metrics.Install(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithRegistry(registry),
	)
	defer removeMetrics()

	// Spans go to the global OpenTelemetry provider; a no-op without one.
	_, removeTraces := rippletrace.Install()
	defer removeTraces()

	printBanner()
	fmt.Println("  inspect")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go runWorkload(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/", server.Handler())

	httpServer := &http.Server{
		Addr:    cfg.InspectorAddress(),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		fmt.Println("\n\n  Shutting down...")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errorMsg("shutdown: %v", err)
		}
		server.Close()
	}()

	success("Inspector listening on %s", cfg.InspectorURL())
	info("graph:   %s/api/graph", cfg.InspectorURL())
	info("stats:   %s/api/stats", cfg.InspectorURL())
	info("stream:  ws://%s/ws", cfg.InspectorAddress())
	info("metrics: %s/metrics", cfg.InspectorURL())
	fmt.Println()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runWorkload drives a small sensor graph so the inspector has live
// activity to display. One batched write per second until ctx expires.
func runWorkload(ctx context.Context) {
	defer ripple.ReleaseContext()

	ripple.CreateRoot(func(dispose func()) any {
		defer dispose()

		temp := ripple.NewSignal(21.5, ripple.WithName[float64]("sensor.temp"))
		humidity := ripple.NewSignal(40.0, ripple.WithName[float64]("sensor.humidity"))
		dewpoint := ripple.NewMemo(func() float64 {
			return temp.Get() - (100-humidity.Get())/5
		}, ripple.WithName[float64]("dewpoint"))

		ripple.CreateNamedEffect("monitor", func() {
			slog.Debug("workload", "dewpoint", dewpoint.Get())
		})

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				ripple.Batch(func() {
					temp.Update(func(v float64) float64 { return v + rand.Float64() - 0.5 })
					humidity.Update(func(v float64) float64 { return v + rand.Float64()*2 - 1 })
				})
			}
		}
	})
}
