// Pland is a project planning daemon with an HTTP API.
//
// It keeps project plans as task trees with dependency edges, computes the
// critical path on demand, and ripples date changes through dependent tasks.
//
// Configuration is loaded from a YAML file overridden by environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	pland
//
//	# Configure via environment
//	SERVER_PORT=9290 LOGGING_LEVEL=debug pland
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pland/internal/audit"
	"github.com/fyrsmithlabs/pland/internal/config"
	plandhttp "github.com/fyrsmithlabs/pland/internal/http"
	"github.com/fyrsmithlabs/pland/internal/logging"
	"github.com/fyrsmithlabs/pland/internal/project"
	"github.com/fyrsmithlabs/pland/internal/schedule"
	"github.com/fyrsmithlabs/pland/internal/services"
	"github.com/fyrsmithlabs/pland/internal/store"
	"github.com/fyrsmithlabs/pland/internal/tasks"
	"github.com/fyrsmithlabs/pland/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  pland           Start the pland daemon\n")
			fmt.Fprintf(os.Stderr, "  pland version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("pland by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the pland server and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = cfg.Observability.Enabled
	telCfg.Endpoint = cfg.Observability.Endpoint
	telCfg.ServiceName = cfg.Observability.ServiceName
	telCfg.ServiceVersion = cfg.Observability.ServiceVersion
	telCfg.Insecure = cfg.Observability.Insecure
	telCfg.Metrics.ExportInterval = cfg.Observability.ExportInterval

	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "Starting pland",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("service", cfg.Observability.ServiceName),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	registry, err := initServices(logger.Zap())
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	srv, err := plandhttp.NewServer(registry, logger.Zap(), &plandhttp.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initLogger builds the structured logger from config.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	logCfg.Output.OTEL = cfg.Logging.OTEL
	return logging.NewLogger(logCfg, nil)
}

// initServices wires the stores and business services into a registry.
func initServices(logger *zap.Logger) (services.Registry, error) {
	mem := store.NewMemory()
	recorder := audit.NewRecorder(logger)

	graph, err := schedule.NewGraph(mem, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("dependency graph: %w", err)
	}
	calculator, err := schedule.NewCalculator(mem, logger)
	if err != nil {
		return nil, fmt.Errorf("critical path calculator: %w", err)
	}
	rescheduler, err := schedule.NewRescheduler(mem, logger)
	if err != nil {
		return nil, fmt.Errorf("rescheduler: %w", err)
	}

	taskSvc, err := tasks.NewService(mem, rescheduler, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("task service: %w", err)
	}

	return services.NewRegistry(services.Options{
		Projects:    project.NewManager(),
		Tasks:       taskSvc,
		Graph:       graph,
		Calculator:  calculator,
		Rescheduler: rescheduler,
		Audit:       recorder,
	}), nil
}
