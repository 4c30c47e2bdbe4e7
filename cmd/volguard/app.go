package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/desertwitch/volguard/internal/configuration"
	"github.com/desertwitch/volguard/internal/hostfs"
	"github.com/desertwitch/volguard/internal/metrics"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/desertwitch/volguard/internal/shell"
	"github.com/desertwitch/volguard/internal/storage"
	"github.com/desertwitch/volguard/internal/ui"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	storage       *storage.Handler
	shell         *shell.Shell
	metricsServer *metrics.Server

	wg sync.WaitGroup
}

// NewApp wires the driver, registry, facade and shell for a configuration.
func NewApp(config *configuration.AppConfiguration) (*App, error) {
	driver, err := hostfs.NewDriver(&schema.OS{}, &schema.Unix{}, config.Volumes)
	if err != nil {
		return nil, fmt.Errorf("(app-new) %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handleRegistry := registry.New(
		registry.WithMetrics(metrics.NewRegistryMetrics(promRegistry)),
	)
	storageHandler := storage.NewHandler(driver, handleRegistry)

	if config.CurrentDirectory != "" {
		if err := storageHandler.SetCurrentDirectory(config.CurrentDirectory); err != nil {
			return nil, fmt.Errorf("(app-new) %w", err)
		}
	}

	app := &App{
		storage: storageHandler,
		shell:   shell.New(storageHandler),
	}

	if config.MetricsAddr != "" {
		app.metricsServer = metrics.NewServer(config.MetricsAddr, promRegistry)
	}

	return app, nil
}

// StartMetrics serves the metrics in the background until ctx is done or the
// [App] is closed. It does nothing if no metrics address is configured.
func (app *App) StartMetrics(ctx context.Context) {
	if app.metricsServer == nil {
		return
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()

		if err := app.metricsServer.Start(ctx); err != nil {
			slog.Error("Metrics server failure.", "err", err)
		}
	}()
}

// Launch runs the shell on the terminal until exit, end of input or ctx is
// done.
func (app *App) Launch(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := runREPL(ctx, app.shell, app.storage.CurrentDirectory, in, out); err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	return nil
}

// LaunchUI runs the shell inside the UI, routing the logs into the UI while
// it is up.
func (app *App) LaunchUI(ctx context.Context, cancel context.CancelFunc, logManager *SlogManager, level slog.Leveler) error {
	uiHandler := ui.NewHandler(ctx, cancel, app.shell, app.storage)

	logManager.AddHandler(uiLogger, tint.NewHandler(uiHandler.LogWriter, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	logManager.RemoveHandler(terminalLogger)
	defer setupLogging(logManager, level)

	if err := uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}

// Close releases all handles held by the shell and stops the metrics server.
func (app *App) Close() {
	app.shell.Close()

	if app.metricsServer != nil {
		if err := app.metricsServer.Stop(); err != nil {
			slog.Warn("Failed to stop the metrics server.", "err", err)
		}
	}

	app.wg.Wait()
}
