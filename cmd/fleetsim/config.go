package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	defaultLogLevel = "info"
	defaultWorkers  = 6

	cmdGenerateStatic = "generate-static"
	cmdGenerateAuto   = "generate-auto"
	cmdRun            = "run"
)

var (
	errMissingCommand    = errors.New("missing subcommand")
	errUnknownCommand    = errors.New("unknown subcommand")
	errMissingPath       = errors.New("missing batch root path")
	errIncompleteArchive = errors.New("archive-bucket, archive-namespace and archive-compartment must all be set together")
)

type options struct {
	command  string
	path     string
	workers  int
	logLevel string

	archiveNamespace     string
	archiveBucket        string
	archiveCompartmentID string

	statusAddr string
}

func parseArgs(args []string) (options, error) {
	if len(args) == 0 {
		return options{}, errMissingCommand
	}

	command := strings.ToLower(strings.TrimSpace(args[0]))
	if !isValidCommand(command) {
		return options{}, fmt.Errorf("%w: %q (supported: %s, %s, %s)", errUnknownCommand, command, cmdGenerateStatic, cmdGenerateAuto, cmdRun)
	}

	opts := options{command: command, workers: defaultWorkers, logLevel: defaultLogLevel}

	flagSet := flag.NewFlagSet(command, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&opts.workers, "workers", defaultWorkers, "Worker pool size for the run subcommand")
	flagSet.StringVar(&opts.logLevel, "log-level", defaultLogLevel, "Structured log level (debug, info, warn, error)")
	flagSet.StringVar(&opts.archiveNamespace, "archive-namespace", "", "OCI Object Storage namespace to archive output batches into")
	flagSet.StringVar(&opts.archiveBucket, "archive-bucket", "", "OCI Object Storage bucket to archive output batches into")
	flagSet.StringVar(&opts.archiveCompartmentID, "archive-compartment", "", "OCI compartment OCID for archival uploads")
	flagSet.StringVar(&opts.statusAddr, "status-addr", "", "Address to serve /metrics and /status on (disabled if empty)")

	if err := flagSet.Parse(args[1:]); err != nil {
		return options{}, fmt.Errorf("parse CLI arguments: %w", err)
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		return options{}, errMissingPath
	}

	opts.path = strings.TrimSpace(positional[0])
	if opts.path == "" {
		return options{}, errMissingPath
	}

	if opts.workers <= 0 {
		opts.workers = defaultWorkers
	}

	opts.logLevel = strings.TrimSpace(opts.logLevel)
	if opts.logLevel == "" {
		opts.logLevel = defaultLogLevel
	}

	if err := opts.validateArchiveFlags(); err != nil {
		return options{}, err
	}

	return opts, nil
}

func (o options) validateArchiveFlags() error {
	set := 0
	if o.archiveNamespace != "" {
		set++
	}

	if o.archiveBucket != "" {
		set++
	}

	if o.archiveCompartmentID != "" {
		set++
	}

	if set != 0 && set != 3 {
		return errIncompleteArchive
	}

	return nil
}

func (o options) archiveEnabled() bool {
	return o.archiveBucket != "" && o.archiveNamespace != "" && o.archiveCompartmentID != ""
}

func isValidCommand(command string) bool {
	switch command {
	case cmdGenerateStatic, cmdGenerateAuto, cmdRun:
		return true
	default:
		return false
	}
}
