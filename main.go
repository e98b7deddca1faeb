package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/drugcatalog-api/catalog"
	"github.com/giygas/drugcatalog-api/config"
	"github.com/giygas/drugcatalog-api/handlers"
	"github.com/giygas/drugcatalog-api/health"
	"github.com/giygas/drugcatalog-api/loader"
	"github.com/giygas/drugcatalog-api/logging"
	"github.com/giygas/drugcatalog-api/mcpserver"
	"github.com/giygas/drugcatalog-api/metrics"
	"github.com/giygas/drugcatalog-api/scheduler"
	"github.com/giygas/drugcatalog-api/server"
	"github.com/giygas/drugcatalog-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	// Read the env file from the working directory, or from next to the executable
	if err := godotenv.Load(); err != nil {
		if ex, err := os.Executable(); err == nil {
			_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogDir, cfg.Env, cfg.LogLevel, cfg.LogRetentionDays, cfg.MaxLogFileSize)
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Server failed", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}
}

// service holds the wired components of the API
type service struct {
	store  *catalog.Catalog
	jobs   *scheduler.Scheduler
	server *server.Server
}

// newService loads the catalog and wires every component on top of it
func newService(cfg *config.Config) (*service, error) {
	validator := validation.NewDataValidator()
	source := loader.NewFileSource(cfg.DataFile, validator)

	start := time.Now()
	records, checksum, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	store := catalog.New(records, checksum)
	metrics.CatalogRecords.Set(float64(store.Count()))
	logging.Info("Catalog loaded", "records", store.Count(), "file", source.Path(), "duration", time.Since(start).String())

	limiter := server.NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCap)
	jobs := scheduler.NewScheduler(store, source, limiter, time.Duration(cfg.DriftInterval)*time.Minute)

	healthChecker := health.NewHealthChecker(store, jobs, time.Duration(cfg.DriftInterval)*time.Minute)
	httpHandler := handlers.NewHTTPHandler(store, validator, healthChecker, cfg.MaxUploadSize)

	var mcpHandler http.Handler
	if cfg.MCPEnabled {
		mcpHandler = mcpserver.NewServer(store, validator).Handler()
	}

	return &service{
		store:  store,
		jobs:   jobs,
		server: server.NewServer(cfg, httpHandler, limiter, mcpHandler),
	}, nil
}

// run starts the background jobs and serves until SIGINT or SIGTERM
func run(cfg *config.Config) error {
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	if err := svc.jobs.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer svc.jobs.Stop()

	// Profiling endpoint (accessible at /debug/pprof/) - only for local dev
	if cfg.Env == config.EnvDevelopment {
		go func() {
			logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				logging.Warn("Profiling server failed", "error", err)
			}
		}()
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := svc.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until a signal is received or the listener fails
	select {
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return svc.server.Shutdown(ctx)
}
