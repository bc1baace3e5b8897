package server

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"

	"github.com/onnwee/stream-recap/telemetry"
)

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed system checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"data_dir", func() error {
			f, err := os.CreateTemp(h.DataDir, ".readyz-*")
			if err != nil {
				return fmt.Errorf("data dir not writable: %w", err)
			}
			name := f.Name()
			f.Close()
			return os.Remove(name)
		}},
		{"binaries", func() error {
			for _, bin := range h.RequiredBinaries {
				if _, err := exec.LookPath(bin); err != nil {
					return fmt.Errorf("%s not found on PATH", bin)
				}
			}
			return nil
		}},
		{"database", func() error {
			if h.Index == nil {
				return nil
			}
			return h.Index.Ping(r.Context())
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	tracing := "disabled"
	if telemetry.IsTracingEnabled() {
		tracing = "enabled"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "tracing": tracing})
}
