// Command simulator steps the preset Sun/Earth/Moon system through time and
// prints what an observer on Earth would measure at each tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/config"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/internal/observability"
	"github.com/signalsfoundry/worldframe/kb"
	"github.com/signalsfoundry/worldframe/timectrl"
)

func main() {
	os.Exit(runMain(os.Args[1:]))
}

// runMain returns the process exit code so deferred cleanup runs before exit.
func runMain(args []string) int {
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML/JSON/TOML config file (defaults to $WORLDFRAME_CONFIG)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus /metrics on this address while running")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		return 2
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: "simulator"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewSimulatorCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		return 1
	}
	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr, metrics, log)
		defer srv.Close()
	}

	if err := run(ctx, cfg.Simulator, log, metrics); err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		return 1
	}
	return 0
}

// run drives a TimeController over the preset frames until the configured
// duration elapses or ctx is cancelled.
func run(ctx context.Context, cfg config.Simulator, log logging.Logger, metrics *observability.SimulatorCollector) error {
	graph, err := core.NewPresetGraph()
	if err != nil {
		return err
	}
	resolver, err := graph.Resolver()
	if err != nil {
		return fmt.Errorf("resolve preset frames: %w", err)
	}
	store := kb.NewDescriptorStore()
	if err := kb.AddPresets(store); err != nil {
		return fmt.Errorf("add preset bodies: %w", err)
	}

	rep := newReporter(resolver, store, cfg.ObserverLat, cfg.ObserverLon, os.Stdout, log, metrics)

	mode := timectrl.Accelerated
	if strings.EqualFold(cfg.Mode, "realtime") {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(timectrl.FromTime(cfg.Start), timectrl.FromStd(cfg.Tick), mode)
	tc.AddListener(func(t timectrl.SimTime) {
		if err := rep.Tick(ctx, t); err != nil {
			log.Warn(ctx, "tick evaluation failed", logging.String("sim_time", t.Time().Format(time.RFC3339)), logging.Err(err))
		}
	})

	log.Info(ctx, "starting simulation",
		logging.String("start", cfg.Start.Format(time.RFC3339)),
		logging.Duration("tick", cfg.Tick),
		logging.Duration("duration", cfg.Duration),
		logging.String("mode", strings.ToLower(cfg.Mode)),
	)
	done := tc.Start(ctx, timectrl.FromStd(cfg.Duration))
	marks := watchProgress(ctx, tc, timectrl.FromStd(cfg.ProgressEvery), done, log)
	log.Info(ctx, "simulation complete", logging.Int("ticks", rep.Ticks()), logging.Int("progress_marks", marks))
	return nil
}

func serveMetrics(addr string, metrics *observability.SimulatorCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()
	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
