package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/logging"
	intOtel "github.com/fieldtrace/trackstats/internal/otel"
	"github.com/fieldtrace/trackstats/internal/pipeline"
	"github.com/rs/zerolog"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "trackstats"
)

var (
	SessionStartTime = time.Now()

	SlogManager *logging.SlogManager
	Logger      *slog.Logger
	// DBLogger is shared by the database and influx layers.
	DBLogger zerolog.Logger

	logWriter io.Writer = os.Stdout
	closers   []io.Closer
)

const usage = `usage:
  trackstats analyze <tracks.json[.gz]> [segment]
  trackstats bands <segmentDir> [segment]
  trackstats batch <tracks...>
  trackstats concat <out.csv> <segmentDir...>`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	setupLogging()
	defer closeAll()
	Logger.Info("Starting up", "version", CurrentVersion, "buildDate", BuildDate, "command", args[0])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		Logger.Error("Command failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}

// setupLogging loads the config and points every logger at stdout and the
// session log file.
func setupLogging() {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info")
	Logger = SlogManager.Logger()

	if err := config.Load("."); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logCfg := config.GetLoggingConfig()
	if err := os.MkdirAll(logCfg.Dir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logCfg.Dir)
	} else {
		path := logging.LogFilePath(logCfg.Dir, AppName, SessionStartTime)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			Logger.Error("Failed to create/open log file!", "error", err, "path", path)
		} else {
			closers = append(closers, f)
			logWriter = io.MultiWriter(os.Stdout, f)
		}
	}

	var extra []slog.Handler
	if logCfg.GraylogEnabled {
		h, closer, err := logging.NewGelfHandler(logCfg.GraylogAddress, logCfg.Level)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", logCfg.GraylogAddress)
		} else {
			extra = append(extra, h)
			closers = append(closers, closer)
		}
	}

	SlogManager.Setup(logWriter, logCfg.Level, extra...)
	Logger = SlogManager.Logger()
	DBLogger = logging.NewZerolog(logWriter, logCfg.Level)
}

func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i].Close()
	}
}

// newPipeline builds a pipeline from the loaded config. Storage and metrics
// sinks are attached only when publish is set.
func newPipeline(ctx context.Context, publish bool) (*pipeline.Pipeline, error) {
	opts, err := pipeline.OptionsFromConfig(
		config.GetKinematicsConfig(),
		config.GetBandsConfig(),
		config.GetReportConfig(),
	)
	if err != nil {
		return nil, err
	}

	otelCfg := config.GetOTelConfig()
	provider := intOtel.New(intOtel.Config{Enabled: otelCfg.Enabled, ServiceName: otelCfg.ServiceName})
	metrics, err := intOtel.NewMetrics(provider.Meter())
	if err != nil {
		Logger.Error("Failed to create metrics", "error", err)
		metrics = nil
	}

	deps := pipeline.Dependencies{Logger: Logger, Metrics: metrics}
	if publish {
		backend, err := initStorage()
		if err != nil {
			return nil, err
		}
		deps.Storage = backend
		deps.Influx = initInflux(ctx)
	}
	return pipeline.New(opts, deps)
}
