package main

import (
	"errors"
	"testing"
)

func TestParseArgsRejectsMissingCommand(t *testing.T) {
	t.Parallel()

	_, err := parseArgs(nil)
	if !errors.Is(err, errMissingCommand) {
		t.Fatalf("expected errMissingCommand, got %v", err)
	}
}

func TestParseArgsRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	_, err := parseArgs([]string{"frobnicate", "./batches"})
	if !errors.Is(err, errUnknownCommand) {
		t.Fatalf("expected errUnknownCommand, got %v", err)
	}
}

func TestParseArgsRejectsMissingPath(t *testing.T) {
	t.Parallel()

	_, err := parseArgs([]string{cmdRun})
	if !errors.Is(err, errMissingPath) {
		t.Fatalf("expected errMissingPath, got %v", err)
	}
}

func TestParseArgsAppliesDefaults(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{cmdRun, "./batches"})
	if err != nil {
		t.Fatalf("parseArgs returned unexpected error: %v", err)
	}

	if opts.command != cmdRun {
		t.Fatalf("expected command %q, got %q", cmdRun, opts.command)
	}

	if opts.path != "./batches" {
		t.Fatalf("expected path %q, got %q", "./batches", opts.path)
	}

	if opts.workers != defaultWorkers {
		t.Fatalf("expected default workers %d, got %d", defaultWorkers, opts.workers)
	}

	if opts.logLevel != defaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", defaultLogLevel, opts.logLevel)
	}

	if opts.archiveEnabled() {
		t.Fatal("expected archival to be disabled by default")
	}
}

func TestParseArgsOverridesFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{
		cmdGenerateAuto,
		"-workers", "3",
		"-log-level", "debug",
		"-status-addr", ":9400",
		"./batches",
	})
	if err != nil {
		t.Fatalf("parseArgs returned unexpected error: %v", err)
	}

	if opts.workers != 3 {
		t.Fatalf("expected workers override 3, got %d", opts.workers)
	}

	if opts.logLevel != "debug" {
		t.Fatalf("expected log level override %q, got %q", "debug", opts.logLevel)
	}

	if opts.statusAddr != ":9400" {
		t.Fatalf("expected status addr override %q, got %q", ":9400", opts.statusAddr)
	}
}

func TestParseArgsNonPositiveWorkersFallsBackToDefault(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{cmdRun, "-workers", "0", "./batches"})
	if err != nil {
		t.Fatalf("parseArgs returned unexpected error: %v", err)
	}

	if opts.workers != defaultWorkers {
		t.Fatalf("expected non-positive workers to fall back to default %d, got %d", defaultWorkers, opts.workers)
	}
}

func TestParseArgsRequiresAllArchiveFlagsTogether(t *testing.T) {
	t.Parallel()

	_, err := parseArgs([]string{cmdRun, "-archive-bucket", "b", "./batches"})
	if !errors.Is(err, errIncompleteArchive) {
		t.Fatalf("expected errIncompleteArchive, got %v", err)
	}
}

func TestParseArgsAcceptsCompleteArchiveFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{
		cmdRun,
		"-archive-bucket", "b",
		"-archive-namespace", "ns",
		"-archive-compartment", "ocid1.compartment.oc1..test",
		"./batches",
	})
	if err != nil {
		t.Fatalf("parseArgs returned unexpected error: %v", err)
	}

	if !opts.archiveEnabled() {
		t.Fatal("expected archival to be enabled when all three flags are set")
	}
}

func TestIsValidCommandRecognizesAllSubcommands(t *testing.T) {
	t.Parallel()

	for _, cmd := range []string{cmdGenerateStatic, cmdGenerateAuto, cmdRun} {
		if !isValidCommand(cmd) {
			t.Fatalf("expected %q to be a valid command", cmd)
		}
	}

	if isValidCommand("bogus") {
		t.Fatal("expected an unrecognized command to be invalid")
	}
}
