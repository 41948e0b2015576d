package progress

import (
	"encoding/json"
	"net/http"
)

// Snapshot captures the driver status returned by the handler.
type Snapshot struct {
	TotalBatches     int `json:"totalBatches"`
	CompletedBatches int `json:"completedBatches"`
	FailedBatches    int `json:"failedBatches"`
}

// Handler renders batch-driver status as JSON.
type Handler struct {
	exporter *Exporter
}

// NewHandler constructs a Handler that proxies an Exporter's counters.
func NewHandler(exporter *Exporter) *Handler {
	return &Handler{exporter: exporter}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	if h == nil || h.exporter == nil {
		http.Error(writer, "progress unavailable", http.StatusServiceUnavailable)

		return
	}

	h.exporter.mu.RLock()
	snapshot := Snapshot{
		TotalBatches:     int(h.exporter.totalBatches),
		CompletedBatches: int(h.exporter.completedBatches),
		FailedBatches:    int(h.exporter.failedBatches),
	}
	h.exporter.mu.RUnlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		http.Error(writer, "marshal status", http.StatusInternalServerError)

		return
	}

	writer.Header().Set("Content-Type", "application/json")
	_, _ = writer.Write(payload)
}
