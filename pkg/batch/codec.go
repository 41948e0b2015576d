package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fleetsim/pkg/sim"
)

// inputPath and outputPath return the on-disk path for batch index n under
// root, named by its zero-padded 4-digit index per spec.md §6.
func inputPath(root string, index int) string {
	return filepath.Join(root, "input", fmt.Sprintf("%04d", index))
}

func outputPath(root string, index int) string {
	return filepath.Join(root, "output", fmt.Sprintf("%04d", index))
}

// writeInputBatch serializes jobs to the input batch file at index,
// creating the input directory if needed.
func writeInputBatch(root string, index int, jobs []sim.JobRecord) error {
	dir := filepath.Join(root, "input")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create input dir %q: %w", dir, err)
	}

	data, err := yaml.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("encode input batch %d: %w", index, err)
	}

	path := inputPath(root, index)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write input batch %q: %w", path, err)
	}

	return nil
}

// readInputBatch deserializes the input batch file at index.
func readInputBatch(root string, index int) ([]sim.JobRecord, error) {
	path := inputPath(root, index)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input batch %q: %w", path, err)
	}

	var jobs []sim.JobRecord

	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("decode input batch %q: %w", path, err)
	}

	return jobs, nil
}

// outputExists reports whether the output batch file at index has already
// been written, the idempotency check spec.md §6 requires of re-runs.
func outputExists(root string, index int) bool {
	_, err := os.Stat(outputPath(root, index))

	return err == nil
}

// writeOutputBatch serializes results to the output batch file at index,
// creating the output directory if needed. It writes a sibling .tmp file
// and renames it into place, so a crash never leaves a partially written
// file under the final output name.
func writeOutputBatch(root string, index int, results []sim.TrialResult) error {
	dir := filepath.Join(root, "output")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %q: %w", dir, err)
	}

	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode output batch %d: %w", index, err)
	}

	path := outputPath(root, index)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write output batch %q: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename output batch %q into place: %w", path, err)
	}

	return nil
}

// readOutputBatch deserializes the output batch file at index.
func readOutputBatch(root string, index int) ([]sim.TrialResult, error) {
	path := outputPath(root, index)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read output batch %q: %w", path, err)
	}

	var results []sim.TrialResult

	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode output batch %q: %w", path, err)
	}

	return results, nil
}

// countInputBatches returns how many sequential input batch files exist
// starting at 0000, stopping at the first gap.
func countInputBatches(root string) int {
	n := 0

	for {
		if _, err := os.Stat(inputPath(root, n)); err != nil {
			return n
		}

		n++
	}
}

// chunkJobs splits jobs into groups of at most MaxJobsPerBatch, preserving
// order, for writing as sequential input batches.
func chunkJobs(jobs []sim.JobRecord) [][]sim.JobRecord {
	var batches [][]sim.JobRecord

	for len(jobs) > 0 {
		n := MaxJobsPerBatch
		if n > len(jobs) {
			n = len(jobs)
		}

		batches = append(batches, jobs[:n])
		jobs = jobs[n:]
	}

	return batches
}
