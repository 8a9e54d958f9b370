// Package main is the entry point for the DEX Quote Aggregator.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/dex-aggregator/business/chain"
	"github.com/fd1az/dex-aggregator/business/gateway"
	"github.com/fd1az/dex-aggregator/business/monitor"
	monitorApp "github.com/fd1az/dex-aggregator/business/monitor/app"
	monitorDI "github.com/fd1az/dex-aggregator/business/monitor/di"
	monitorInfra "github.com/fd1az/dex-aggregator/business/monitor/infra"
	"github.com/fd1az/dex-aggregator/business/quoting"
	"github.com/fd1az/dex-aggregator/business/routing"
	"github.com/fd1az/dex-aggregator/internal/apm"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/health"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/metrics"
	"github.com/fd1az/dex-aggregator/internal/monolith"
	"github.com/fd1az/dex-aggregator/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	tuiMode    bool
	pair       string
	tradeSize  string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	tuiMode := flag.Bool("tui", false, "Run the terminal dashboard instead of headless serving")
	pair := flag.String("pair", "", "Watch a single pair, e.g. WETH-USDC")
	tradeSize := flag.String("size", "", "Trade size for watched quotes, in token-in units")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dex-aggregator %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !*tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	opts := options{
		configPath: *configPath,
		logLevel:   *logLevel,
		tuiMode:    *tuiMode,
		pair:       *pair,
		tradeSize:  *tradeSize,
	}

	// Run application
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override file and environment settings
	if opts.logLevel != "" {
		cfg.App.LogLevel = opts.logLevel
	}
	if opts.pair != "" {
		cfg.Watch.Pairs = []string{opts.pair}
	}
	if opts.tradeSize != "" {
		cfg.Watch.TradeSize = opts.tradeSize
	}

	// Setup logger (only log to stderr in headless mode)
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if opts.tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting DEX Quote Aggregator",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		// Set service name env var for OTEL
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		// Initialize tracing with Zipkin (local dev friendly)
		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		// Initialize metrics with Prometheus
		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		// Start Prometheus metrics server in background
		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server
	healthPort := cfg.Server.HealthPort
	if healthPort == 0 {
		healthPort = 8081
	}
	healthServer := health.NewServer(healthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", healthPort)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&chain.Module{},   // Must be first - provides the Ethereum client
		&routing.Module{}, // Depends on chain for calldata building
		&quoting.Module{}, // Depends on chain and routing
		&gateway.Module{}, // Depends on quoting - serves the REST API
		&monitor.Module{}, // Depends on quoting and chain - watches pairs
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if opts.tuiMode {
		// TUI mode: Start modules in background so TUI shows immediately
		startFunc := func() error {
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			watcher := monitorDI.GetWatcher(mono.Services())
			watcher.AddReporter(monitorInfra.NewTUIReporter())
			return watcher.Start(ctx)
		}
		stopFunc := func() {
			watcher := monitorDI.GetWatcher(mono.Services())
			watcher.Stop()
		}
		return runTUI(ctx, startFunc, stopFunc)
	}

	// Headless mode: Start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// The gateway serves the API from its own goroutine; the watcher
	// reports the configured pairs to stdout until shutdown.
	watcher := monitorDI.GetWatcher(mono.Services())
	watcher.AddReporter(monitorInfra.NewConsoleReporter())
	return runServe(ctx, watcher, log)
}

func runServe(ctx context.Context, watcher *monitorApp.Watcher, log *logger.Logger) error {
	log.Info(ctx, "all modules started, serving quotes")

	// Start the watch loop
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")

	// Stop watcher gracefully
	if err := watcher.Stop(); err != nil {
		log.Error(ctx, "error stopping watcher", "error", err)
	}

	return nil
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	// Run the aggregator in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete (StartModulesMsg signal)
		select {
		case <-startSignal:
			// Welcome complete, start modules
		case <-ctx.Done():
			errCh <- nil
			return
		}

		// Start modules and watcher (connections happen here, TUI shows progress)
		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		// Wait for context cancellation
		<-ctx.Done()

		// Stop watcher
		stopFunc()
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Check for aggregator errors
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
