// Command volguard is the debug console of the volume guard, arbitrating open
// file handles in front of the native file system driver.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/desertwitch/volguard/internal/configuration"
	"github.com/lmittmann/tint"
)

const (
	stackTraceBufMax = 1 << 24

	// Names of the [SlogManager] handlers.
	terminalLogger = "terminal"
	uiLogger       = "ui"
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	configFile  = flag.String("config", "/etc/volguard.conf", "path to the configuration file")
	uiEnabled   = flag.Bool("ui", true, "enable the UI")
	metricsAddr = flag.String("metrics", "", "serve metrics on this address (overrides METRICS_ADDR)")
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to this file")
)

func newTintHandler(level slog.Leveler) slog.Handler {
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
}

func setupLogging(logManager *SlogManager, level slog.Leveler) {
	logManager.RemoveHandler(uiLogger)
	logManager.AddHandler(terminalLogger, newTintHandler(level))
	slog.SetDefault(slog.New(logManager))
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()

	level := &slog.LevelVar{}
	logManager := NewSlogManager()
	setupLogging(logManager, level)
	setupSignalHandlers(cancel)

	cpuProfiler := newCPUProfiler(ctx, cpuprofile)
	defer cpuProfiler.Stop()

	allocProfiler := newAllocProfiler(ctx, memprofile)
	defer allocProfiler.Stop()

	configProvider := &configuration.ConfigProviderImpl{
		GenericConfigReader: &configuration.GodotenvProvider{},
	}

	config, err := configuration.NewAppConfiguration(configProvider, *configFile)
	if err != nil {
		slog.Error("Failed to read the configuration.",
			"path", *configFile,
			"err", err,
		)
		ExitCode = 1

		return
	}

	if *metricsAddr != "" {
		config.MetricsAddr = *metricsAddr
	}
	level.Set(config.SlogLevel())

	app, err := NewApp(config)
	if err != nil {
		slog.Error("Failed to establish the volume guard.",
			"err", err,
		)
		ExitCode = 1

		return
	}
	defer app.Close()

	slog.Info("Volume guard is ready.", "version", Version, "volumes", len(config.Volumes))

	app.StartMetrics(ctx)

	if *uiEnabled {
		err := app.LaunchUI(ctx, cancel, logManager, level)
		if err == nil || ctx.Err() != nil {
			return
		}
		slog.Error("UI failure: falling back to terminal.", "err", err)
	}

	if err := app.Launch(ctx, os.Stdin, os.Stdout); err != nil {
		ExitCode = 1
	}
}
