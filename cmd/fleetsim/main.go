// Package main wires the fleetsim batch-driver CLI entrypoint.
package main

//nolint:depguard // main wires project-internal modules and zap logging
import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"fleetsim/internal/buildinfo"
	"fleetsim/pkg/archive"
	"fleetsim/pkg/batch"
	"fleetsim/pkg/progress"
)

const (
	exitCodeSuccess    = 0
	exitCodeUsageError = 1
)

func main() {
	code := run(context.Background(), os.Args[1:], defaultRunDeps(), os.Stderr)
	if code != 0 {
		os.Exit(code)
	}
}

type runDeps struct {
	newLogger func(level string) (*zap.Logger, error)
	newDriver func(root string, logger *zap.Logger) *batch.Driver
}

func defaultRunDeps() runDeps {
	return runDeps{
		newLogger: newLogger,
		newDriver: batch.NewDriver,
	}
}

func run(ctx context.Context, args []string, deps runDeps, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err) //nolint:errcheck

		return exitCodeUsageError
	}

	logger, err := deps.newLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "failed to configure logger: %v\n", err) //nolint:errcheck

		return exitCodeUsageError
	}

	defer func() {
		_ = logger.Sync()
	}()

	info := buildinfo.Current()
	logger.Info("starting fleetsim",
		zap.String("version", info.Version),
		zap.String("commit", info.GitCommit),
		zap.String("command", opts.command),
		zap.String("path", opts.path),
	)

	driver := deps.newDriver(opts.path, logger)
	driver.Workers = opts.workers

	if opts.archiveEnabled() {
		archiver, archiveErr := archive.NewInstancePrincipalClient(opts.archiveNamespace, opts.archiveBucket, opts.archiveCompartmentID)
		if archiveErr != nil {
			logger.Warn("archival disabled: failed to construct object storage client", zap.Error(archiveErr))
		} else {
			driver.Archive = archiver
		}
	}

	var server *http.Server

	if opts.statusAddr != "" {
		server = startStatusServer(opts.statusAddr, driver, logger)
		defer func() {
			_ = server.Shutdown(ctx)
		}()
	}

	if err := dispatch(ctx, driver, opts.command); err != nil {
		logger.Error("command failed", zap.String("command", opts.command), zap.Error(err))

		return exitCodeUsageError
	}

	return exitCodeSuccess
}

func dispatch(ctx context.Context, driver *batch.Driver, command string) error {
	switch command {
	case cmdGenerateStatic:
		return driver.GenerateStatic()
	case cmdGenerateAuto:
		return driver.GenerateAuto()
	case cmdRun:
		return driver.Run(ctx)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, command)
	}
}

func startStatusServer(addr string, driver *batch.Driver, logger *zap.Logger) *http.Server {
	exporter := progress.NewExporter()
	driver.Progress = exporter

	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter)
	mux.Handle("/status", progress.NewHandler(exporter))

	server := &http.Server{Addr: addr, Handler: mux} //nolint:gosec // internal tooling, no public exposure

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server stopped unexpectedly", zap.Error(err))
		}
	}()

	return server
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "" {
		level = defaultLogLevel
	}

	cfg := zap.NewProductionConfig()

	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.CallerKey = "caller"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return logger, nil
}

var errInvalidLogLevel = errors.New("invalid log level")
