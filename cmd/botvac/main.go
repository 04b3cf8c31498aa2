package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/spf13/pflag"

	"github.com/joshp123/botvac/internal/config"
	"github.com/joshp123/botvac/internal/core"
	"github.com/joshp123/botvac/internal/logging"
	"github.com/joshp123/botvac/internal/plugins"
	"github.com/joshp123/botvac/internal/router"
	"github.com/joshp123/botvac/internal/server"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var grpcAddr, httpAddr string
	var logLevel string
	var allPlugins bool

	flagSet := pflag.NewFlagSet("botvac", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", envOrDefault("BOTVAC_CONFIG", config.DefaultPath), "path to the YAML config file")
	flagSet.StringVar(&grpcAddr, "grpc-addr", "", "override core.grpc_addr")
	flagSet.StringVar(&httpAddr, "http-addr", "", "override core.http_addr")
	flagSet.StringVar(&logLevel, "log-level", "", "override log.level")
	flagSet.BoolVar(&allPlugins, "all-plugins", false, "enable every compiled plugin regardless of config")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println("botvac", version)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if grpcAddr != "" {
		cfg.Core.GRPCAddr = grpcAddr
	}
	if httpAddr != "" {
		cfg.Core.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Handler, cfg.Log.Level)
	if err != nil {
		return err
	}
	log.Log = logger
	ctxLogger := logger.WithField("module", "daemon")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	compiled := plugins.Compiled(cfg, logger)
	enabled := config.EnabledPlugins(cfg)
	if err := core.ValidateEnabledPlugins(compiled, enabled, allPlugins); err != nil {
		return err
	}
	active := core.FilterPlugins(compiled, enabled, allPlugins)
	if err := core.ValidatePlugins(active); err != nil {
		return err
	}
	for _, p := range active {
		entry := ctxLogger.WithFields(log.Fields{"plugin": p.ID(), "health": p.Health()})
		if msg := p.HealthMessage(); msg != "" {
			entry = entry.WithField("message", msg)
		}
		entry.Info("plugin loaded")
	}

	grpcServer, err := server.NewGRPCServer(cfg.Core.GRPCAddr, logger.WithField("module", "grpc"))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	router.RegisterPlugins(grpcServer.Server, active)

	registry := core.NewRegistry(active)
	metricsRegistry := core.MetricsRegistry(active, core.BuildInfo(version))

	httpMux := http.NewServeMux()
	httpMux.Handle("/health", server.HealthHandler(registry))
	httpMux.Handle("/metrics", server.MetricsHandler(metricsRegistry))
	httpMux.Handle("/v1/plugins", server.PluginsHandler(registry))
	router.RegisterHTTP(httpMux, active)
	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, httpMux)

	for _, p := range active {
		starter, ok := p.(core.Starter)
		if !ok {
			continue
		}
		if err := starter.Start(ctx); err != nil {
			ctxLogger.WithError(err).WithField("plugin", p.ID()).Error("plugin start failed")
		}
	}

	errCh := make(chan error, 2)
	go func() {
		ctxLogger.WithField("addr", cfg.Core.HTTPAddr).Info("http listening")
		if err := httpServer.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		ctxLogger.WithField("addr", cfg.Core.GRPCAddr).Info("grpc listening")
		if err := grpcServer.Serve(); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		ctxLogger.Info("shutting down")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	grpcServer.Stop(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		ctxLogger.WithError(err).Warn("http shutdown")
	}
	for _, p := range active {
		if closer, ok := p.(core.Closer); ok {
			if err := closer.Close(); err != nil {
				ctxLogger.WithError(err).WithField("plugin", p.ID()).Warn("plugin close")
			}
		}
	}
	return runErr
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
