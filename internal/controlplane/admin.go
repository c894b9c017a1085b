package controlplane

import (
	"encoding/json"
	"net/http"

	"github.com/godon-dev/godon-images/internal/config"
	"github.com/godon-dev/godon-images/internal/observability"
)

// RegisterAdminHandlers mounts the admin endpoints: liveness, the relay's
// own Prometheus metrics and the effective configuration.
func RegisterAdminHandlers(mux *http.ServeMux, metrics *observability.Metrics, cfg *config.Config, logger *observability.Logger) {
	mux.HandleFunc("/healthz", serveHealthz)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/config", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(cfg); err != nil {
			logger.Errorw("encode config", "err", err)
		}
	}))
}

// serveHealthz reports the admin listener itself; it never touches the gateway.
func serveHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
