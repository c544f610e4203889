// Package app assembles the simulation host: logging, metrics, the hub, and
// the HTTP surface, then runs the server until the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"fleetsim/server/internal/hub"
	"fleetsim/server/internal/metrics"
	servernet "fleetsim/server/internal/net"
	"fleetsim/server/logging"
	loggingsinks "fleetsim/server/logging/sinks"
)

// Run builds every collaborator from cfg and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	logger := log.Default()

	logCfg := logging.DefaultConfig()
	if len(cfg.Logging.Sinks) > 0 {
		logCfg.EnabledSinks = cfg.Logging.Sinks
	}
	logCfg.JSON.FilePath = cfg.Logging.JSONPath
	logCfg.JSON.FlushInterval = cfg.Logging.FlushInterval

	var namedSinks []logging.NamedSink
	var jsonFile *os.File
	for _, name := range logCfg.EnabledSinks {
		switch name {
		case "console":
			namedSinks = append(namedSinks, logging.NamedSink{
				Name: name,
				Sink: loggingsinks.NewConsoleSink(os.Stdout),
			})
		case "json":
			if logCfg.JSON.FilePath == "" {
				logger.Printf("json sink enabled without a file path; skipping")
				continue
			}
			file, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open json log %s: %w", logCfg.JSON.FilePath, err)
			}
			jsonFile = file
			namedSinks = append(namedSinks, logging.NamedSink{
				Name: name,
				Sink: loggingsinks.NewJSONSink(file, logCfg.JSON.FlushInterval),
			})
		default:
			logger.Printf("unknown logging sink %q; skipping", name)
		}
	}

	router := logging.NewRouter(nil, logCfg, namedSinks)
	defer func() {
		if err := router.Close(context.Background()); err != nil {
			logger.Printf("failed to close logging router: %v", err)
		}
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("construct metrics collector: %w", err)
	}

	hubCfg := hub.DefaultConfig()
	hubCfg.Seed = cfg.Seed
	hubCfg.TickRate = cfg.TickRate
	hubCfg.Population.Accounts = cfg.Population.Accounts
	hubCfg.Population.Tweets = cfg.Population.Tweets
	hubCfg.Logger = logger

	h := hub.NewHub(hubCfg, router, collector)
	stop := make(chan struct{})
	go h.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(h, servernet.HTTPHandlerConfig{
		Logger:    logger,
		Collector: collector,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}
