package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godon-dev/godon-images/internal/cache"
	"github.com/godon-dev/godon-images/internal/config"
	"github.com/godon-dev/godon-images/internal/controlplane"
	"github.com/godon-dev/godon-images/internal/exporter"
	"github.com/godon-dev/godon-images/internal/listener"
	"github.com/godon-dev/godon-images/internal/observability"
	"github.com/godon-dev/godon-images/internal/router"
	"github.com/godon-dev/godon-images/internal/upstream"
)

var version = "dev"

func main() {
	cfg, err := config.FromArgs(os.Args[0], os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Infow("starting godon metrics exporter", "version", version)

	metrics := observability.NewMetrics()

	client, err := upstream.NewClient(cfg.PushGatewayURL, cfg.FetchTimeout)
	if err != nil {
		logger.Fatalw("failed to init push gateway client", "err", err)
	}
	logger.Infow("push gateway", "url", cfg.PushGatewayURL, "timeout", cfg.FetchTimeout)

	exp := exporter.New(cache.New(), client, metrics, logger, exporter.Options{
		Source:           client.MetricsURL(),
		ErrorLogInterval: cfg.ErrorLogInterval,
	})
	rtr := router.NewRouter(exp, metrics, logger)

	// Data plane server
	dataSrv := listener.NewServer("data", cfg.ListenAddr(), rtr, logger)
	dataLn, err := dataSrv.Listen()
	if err != nil {
		logger.Fatalw("failed to bind", "addr", cfg.ListenAddr(), "err", err)
	}
	logger.Infow("metrics endpoint", "url", "http://"+dataLn.Addr().String()+"/metrics")

	// Admin plane server, optional
	var adminSrv *listener.Server
	if cfg.AdminAddr != "" {
		adminMux := http.NewServeMux()
		controlplane.RegisterAdminHandlers(adminMux, metrics, cfg, logger)
		adminSrv = listener.NewServer("admin", cfg.AdminAddr, adminMux, logger)
		adminLn, err := adminSrv.Listen()
		if err != nil {
			logger.Fatalw("failed to bind admin", "addr", cfg.AdminAddr, "err", err)
		}
		go func() {
			if err := adminSrv.Serve(adminLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalw("admin server error", "err", err)
			}
		}()
	}

	go func() {
		if err := dataSrv.Serve(dataLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "err", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = dataSrv.Shutdown(ctx)
	if adminSrv != nil {
		_ = adminSrv.Shutdown(ctx)
	}
}
