// Command media-author is a self-hosted authoring console daemon. It
// prepares one media asset at a time for publication: analysis, cover
// selection, page rendering, metadata editing and finally a streamed
// upload to Catalogue Storage.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-author/internal/analyze"
	"media-author/internal/catalog"
	"media-author/internal/handlers"
	"media-author/internal/logging"
	"media-author/internal/memory"
	"media-author/internal/metrics"
	"media-author/internal/middleware"
	"media-author/internal/pagedoc"
	"media-author/internal/preview"
	"media-author/internal/session"
	"media-author/internal/startup"
	"media-author/internal/thumbnail"
	"media-author/internal/uploader"
)

func main() {
	startTime := time.Now()

	// GOMEMLIMIT before anything allocates in earnest.
	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// libvips backs cover processing; without it covers fall back to
	// pure-Go decoding.
	if err := thumbnail.InitVips(); err != nil {
		logging.Warn("libvips unavailable, cover processing degraded: %v", err)
	}
	defer thumbnail.ShutdownVips()

	startup.LogToolchainInit()

	// Catalog store
	storeStart := time.Now()
	store, err := catalog.New(context.Background(), config.CatalogPath)
	if err != nil {
		startup.LogFatal("Failed to initialize catalog store: %v", err)
	}
	defer store.Close()
	startup.LogCatalogInit(time.Since(storeStart))

	// Memory monitor pauses page rendering under pressure.
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	renderer := pagedoc.NewRenderer(nil, config.PagesDir)
	renderer.SetThrottle(monitor)

	sessions := session.NewStore(config.SessionDir)
	transport := uploader.New(&http.Client{}, sessions)

	controller := preview.NewController(preview.Options{
		Analyzer:  analyze.New(nil),
		Generator: thumbnail.NewGenerator(config.ThumbnailDir),
		Renderer:  renderer,
		Transport: transport,
		Store:     store,
		Limits:    config.Limits,
		Endpoint:  config.CatalogueEndpoint,
		CoversDir: config.CoversDir,
	})

	// Metrics
	metrics.InitializeMetrics()
	collector := metrics.NewCollector(store, config.StatsInterval)
	collector.Start()

	h := handlers.New(controller, store, config)
	router := handlers.NewRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Middleware chain, innermost first: auth, then metrics, then the
	// access log, with compression on the outside.
	authedHandler := middleware.Auth(middleware.DefaultAuthConfig(config.ConsoleToken))(router)
	meteredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(authedHandler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(meteredHandler)

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming sets its own deadlines
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, controller, collector, monitor)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, controller *preview.Controller, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Closing preview selection")
	controller.Close()
	startup.LogShutdownStepComplete("Preview selection closed")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
