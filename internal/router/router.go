package router

import (
	"context"
	"net/http"

	"github.com/prometheus/common/expfmt"

	"github.com/godon-dev/godon-images/internal/observability"
)

// ContentType of the relayed /metrics body: text exposition format 0.0.4.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// Relay is the fetch-then-render cycle behind /metrics.
type Relay interface {
	Fetch(ctx context.Context)
	Render() string
}

type Router struct {
	relay   Relay
	metrics *observability.Metrics
	logger  *observability.Logger
	routes  map[string]http.HandlerFunc
}

func NewRouter(relay Relay, m *observability.Metrics, l *observability.Logger) *Router {
	if l == nil {
		l = observability.NewNop()
	}
	r := &Router{relay: relay, metrics: m, logger: l}
	r.routes = map[string]http.HandlerFunc{
		"/metrics": r.serveMetrics,
		"/health":  serveHealth,
	}
	return r
}

// ServeHTTP routes by exact path; the method is not checked.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := r.routes[req.URL.Path]; ok {
		h(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Try /metrics"))
}

// serveMetrics always answers 200; upstream trouble shows up only in the body.
func (r *Router) serveMetrics(w http.ResponseWriter, req *http.Request) {
	if r.metrics != nil {
		r.metrics.IncScrapes()
	}
	// a scraper hanging up must not cancel the upstream call and poison the
	// shared cache; only the client timeout bounds the fetch
	r.relay.Fetch(context.WithoutCancel(req.Context()))
	body := r.relay.Render()

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		r.logger.Debugw("write metrics response", "remote", req.RemoteAddr, "err", err)
	}
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
