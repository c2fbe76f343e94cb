// Command kernel-server serves the ephemeris gRPC API over a frame graph
// and body descriptor set, with Prometheus metrics and optional tracing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/config"
	"github.com/signalsfoundry/worldframe/internal/ephemeris"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/internal/observability"
	"github.com/signalsfoundry/worldframe/kb"
)

func main() {
	os.Exit(runMain(os.Args[1:]))
}

// runMain returns the process exit code so deferred cleanup runs before exit.
func runMain(args []string) int {
	fs := flag.NewFlagSet("kernel-server", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML/JSON/TOML config file (defaults to $WORLDFRAME_CONFIG)")
	grpcAddr := fs.String("grpc-addr", "", "Override grpc.address")
	metricsAddr := fs.String("metrics-addr", "", "Override metrics.address; \"-\" disables the metrics server")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernel-server: %v\n", err)
		return 2
	}
	if *grpcAddr != "" {
		cfg.GRPC.Address = *grpcAddr
	}
	switch *metricsAddr {
	case "":
	case "-":
		cfg.Metrics.Address = ""
	default:
		cfg.Metrics.Address = *metricsAddr
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: "kernel-server"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPC.Address), logging.Err(err))
		return 1
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "kernel server exited", logging.Err(err))
		return 1
	}
	return 0
}

// run serves on lis until ctx is cancelled, then drains in-flight calls.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	graph, err := loadFrames(ctx, cfg.Kernel.FramesFile, log)
	if err != nil {
		return err
	}
	store, err := loadDescriptors(ctx, cfg.Kernel.DescriptorsFile, log)
	if err != nil {
		return err
	}

	collector, err := observability.NewKernelCollector(nil)
	if err != nil {
		return fmt.Errorf("initialise metrics collector: %w", err)
	}
	metricsSrv := serveMetrics(cfg.Metrics.Address, collector, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("initialise tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			ephemeris.RequestIDUnaryServerInterceptor(log),
			ephemeris.TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
		),
	)
	ephemeris.RegisterEphemerisServer(server, ephemeris.NewServer(graph, store,
		ephemeris.WithLogger(log),
		ephemeris.WithMetrics(collector),
		ephemeris.WithMaxSamples(cfg.Kernel.MaxInsolationSamples),
	))

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting ephemeris gRPC server",
			logging.String("addr", lis.Addr().String()),
			logging.Int("frames", graph.Len()),
			logging.Bool("metrics", metricsSrv != nil),
		)
		serveErr <- server.Serve(lis)
	}()

	var result error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down kernel server")
		server.GracefulStop()
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			result = fmt.Errorf("grpc serve: %w", err)
		}
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return result
}

// loadFrames reads a frame graph file, or returns the Sun/Earth/Moon
// presets when path is empty.
func loadFrames(ctx context.Context, path string, log logging.Logger) (*core.FrameGraph, error) {
	if path == "" {
		log.Info(ctx, "serving preset frames")
		return core.NewPresetGraph()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames %q: %w", path, err)
	}
	defer f.Close()

	graph := core.NewFrameGraph()
	scenario, err := core.LoadFrameGraph(graph, f)
	if err != nil {
		return nil, fmt.Errorf("load frames %q: %w", path, err)
	}
	log.Info(ctx, "loaded frame graph",
		logging.String("path", path),
		logging.String("root", string(scenario.Root)),
		logging.Int("frames", len(scenario.FrameIDs)),
	)
	return graph, nil
}

func loadDescriptors(ctx context.Context, path string, log logging.Logger) (*kb.DescriptorStore, error) {
	store := kb.NewDescriptorStore()
	if path == "" {
		if err := kb.AddPresets(store); err != nil {
			return nil, fmt.Errorf("add preset bodies: %w", err)
		}
		return store, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open descriptors %q: %w", path, err)
	}
	defer f.Close()

	n, err := kb.LoadDescriptors(store, f)
	if err != nil {
		return nil, fmt.Errorf("load descriptors %q: %w", path, err)
	}
	log.Info(ctx, "loaded body descriptors", logging.String("path", path), logging.Int("count", n))
	return store, nil
}

func serveMetrics(addr string, collector *observability.KernelCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
