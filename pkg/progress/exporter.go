// Package progress exposes batch-driver progress as OpenMetrics text and
// as a JSON status snapshot, for the optional -status-addr surface.
package progress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

const contentType = "application/openmetrics-text; version=1.0.0; charset=utf-8"

var errNilWriter = errors.New("progress: writer is nil")

// Exporter tracks batch-completion counters and exposes them via HTTP.
type Exporter struct {
	mu sync.RWMutex

	totalBatches     float64
	completedBatches float64
	failedBatches    float64
	jobsRun          float64
}

// NewExporter constructs an Exporter with zeroed counters.
func NewExporter() *Exporter {
	return new(Exporter)
}

// SetTotal records how many batches this run will process.
func (e *Exporter) SetTotal(total int) {
	e.mu.Lock()
	e.totalBatches = float64(total)
	e.mu.Unlock()
}

// BatchStarted implements batch.ProgressReporter; it is a no-op for
// metrics, which only track completions.
func (e *Exporter) BatchStarted(int) {}

// BatchCompleted implements batch.ProgressReporter, recording a
// completed or failed batch and its job count.
func (e *Exporter) BatchCompleted(_ int, jobCount int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.failedBatches++

		return
	}

	e.completedBatches++
	e.jobsRun += float64(jobCount)
}

// ServeHTTP implements http.Handler for the metrics exporter.
func (e *Exporter) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	data, err := e.Render()
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)

		return
	}

	writer.Header().Set("Content-Type", contentType)
	_, _ = writer.Write(data)
}

// Render returns the current metrics snapshot encoded as OpenMetrics text.
func (e *Exporter) Render() ([]byte, error) {
	var buffer bytes.Buffer

	_, err := e.WriteTo(&buffer)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// WriteTo writes the current metrics snapshot to the provided writer.
func (e *Exporter) WriteTo(dst io.Writer) (int64, error) {
	if dst == nil {
		return 0, errNilWriter
	}

	e.mu.RLock()
	total, completed, failed, jobs := e.totalBatches, e.completedBatches, e.failedBatches, e.jobsRun
	e.mu.RUnlock()

	lines := []string{
		"# HELP fleetsim_batches_total Number of input batches this run will process.\n",
		"# TYPE fleetsim_batches_total gauge\n",
		fmt.Sprintf("fleetsim_batches_total %.0f\n", total),
		"# HELP fleetsim_batches_completed Number of batches written successfully.\n",
		"# TYPE fleetsim_batches_completed counter\n",
		fmt.Sprintf("fleetsim_batches_completed %.0f\n", completed),
		"# HELP fleetsim_batches_failed Number of batches that errored without writing output.\n",
		"# TYPE fleetsim_batches_failed counter\n",
		fmt.Sprintf("fleetsim_batches_failed %.0f\n", failed),
		"# HELP fleetsim_jobs_run Number of jobs run across completed batches.\n",
		"# TYPE fleetsim_jobs_run counter\n",
		fmt.Sprintf("fleetsim_jobs_run %.0f\n", jobs),
		"# EOF\n",
	}

	var written int64

	for _, line := range lines {
		n, err := io.WriteString(dst, line)

		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write metrics: %w", err)
		}
	}

	return written, nil
}
