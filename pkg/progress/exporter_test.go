package progress_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleetsim/pkg/progress"
)

const openMetricsContentType = "application/openmetrics-text; version=1.0.0; charset=utf-8"

var errFailingWriter = errors.New("progress: failing writer")

func TestExporterRenderProducesOpenMetrics(t *testing.T) {
	t.Parallel()

	exporter := progress.NewExporter()
	exporter.SetTotal(10)
	exporter.BatchCompleted(0, 5, nil)
	exporter.BatchCompleted(1, 3, nil)
	exporter.BatchCompleted(2, 0, errors.New("boom"))

	body, err := exporter.Render()
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	got := string(body)
	expected := strings.Join([]string{
		"# HELP fleetsim_batches_total Number of input batches this run will process.",
		"# TYPE fleetsim_batches_total gauge",
		"fleetsim_batches_total 10",
		"# HELP fleetsim_batches_completed Number of batches written successfully.",
		"# TYPE fleetsim_batches_completed counter",
		"fleetsim_batches_completed 2",
		"# HELP fleetsim_batches_failed Number of batches that errored without writing output.",
		"# TYPE fleetsim_batches_failed counter",
		"fleetsim_batches_failed 1",
		"# HELP fleetsim_jobs_run Number of jobs run across completed batches.",
		"# TYPE fleetsim_jobs_run counter",
		"fleetsim_jobs_run 8",
		"# EOF",
		"",
	}, "\n")

	if got != expected {
		t.Fatalf("unexpected metrics output:\nexpected:\n%s\n\nactual:\n%s", expected, got)
	}
}

func TestExporterServeHTTPWritesContentType(t *testing.T) {
	t.Parallel()

	exporter := progress.NewExporter()

	recorder := httptest.NewRecorder()
	exporter.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if recorder.Code != 200 {
		t.Fatalf("unexpected status code: %d", recorder.Code)
	}

	if got := recorder.Header().Get("Content-Type"); got != openMetricsContentType {
		t.Fatalf("unexpected content type: %q", got)
	}
}

func TestExporterWriteToPropagatesWriterErrors(t *testing.T) {
	t.Parallel()

	exporter := progress.NewExporter()

	_, err := exporter.WriteTo(failingWriter{})
	if err == nil {
		t.Fatal("expected error from WriteTo")
	}

	if !strings.Contains(err.Error(), "write metrics") {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestExporterWriteToRejectsNilWriter(t *testing.T) {
	t.Parallel()

	exporter := progress.NewExporter()

	if _, err := exporter.WriteTo(nil); err == nil {
		t.Fatal("expected an error for a nil writer")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errFailingWriter
}
