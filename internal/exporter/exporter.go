package exporter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/godon-dev/godon-images/internal/cache"
	"github.com/godon-dev/godon-images/internal/observability"
	"github.com/godon-dev/godon-images/internal/ratelimiter"
	"github.com/godon-dev/godon-images/internal/upstream"
)

// Fetcher returns the raw text-format body of one upstream scrape.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type Options struct {
	// Source is logged alongside fetch results, usually the gateway metrics URL.
	Source string
	// ErrorLogInterval throttles repeated failure logs of the same kind.
	// Zero logs every failure at error level.
	ErrorLogInterval time.Duration
}

// Exporter relays Push Gateway metrics through a Cache.
type Exporter struct {
	cache   *cache.Cache
	fetcher Fetcher
	metrics *observability.Metrics
	logger  *observability.Logger
	opts    Options
	errLog  *ratelimiter.Limiter
}

// New wires an Exporter. metrics and logger may be nil.
func New(c *cache.Cache, f Fetcher, m *observability.Metrics, l *observability.Logger, opts Options) *Exporter {
	if l == nil {
		l = observability.NewNop()
	}
	return &Exporter{cache: c, fetcher: f, metrics: m, logger: l, opts: opts, errLog: ratelimiter.New()}
}

// Fetch scrapes the upstream once and records the outcome in the cache.
// A failure keeps the previously cached text but marks it unreachable.
func (e *Exporter) Fetch(ctx context.Context) {
	e.logger.Debugw("fetching metrics", "url", e.opts.Source)

	start := time.Now()
	body, err := e.fetcher.Fetch(ctx)
	dur := time.Since(start)

	if err == nil {
		e.cache.Write(cache.Snapshot{MetricsText: string(body), Reachable: true})
		e.observe(observability.ResultSuccess, dur)
		e.errLog.Reset(observability.ResultTransport)
		e.errLog.Reset(observability.ResultStatus)
		e.errLog.Reset(observability.ResultBodyRead)
		e.logger.Infow("fetched metrics from push gateway",
			"url", e.opts.Source,
			"size", humanize.Bytes(uint64(len(body))),
			"duration_ms", dur.Milliseconds(),
		)
		return
	}

	msg := err.Error()
	e.cache.Update(func(s cache.Snapshot) cache.Snapshot {
		return cache.Snapshot{MetricsText: s.MetricsText, Reachable: false, LastError: msg}
	})

	result := classify(err)
	e.observe(result, dur)
	if e.errLog.Allow(result, e.opts.ErrorLogInterval, 1) {
		e.logger.Errorw("push gateway fetch failed", "url", e.opts.Source, "kind", result, "err", msg)
	} else {
		e.logger.Debugw("push gateway fetch failed", "url", e.opts.Source, "kind", result, "err", msg)
	}
}

func (e *Exporter) observe(result string, d time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveFetch(result, d)
	}
}

// classify maps a fetch error to its metrics label. Errors outside the
// upstream taxonomy count as transport failures.
func classify(err error) string {
	var se *upstream.StatusError
	var be *upstream.BodyReadError
	switch {
	case errors.As(err, &se):
		return observability.ResultStatus
	case errors.As(err, &be):
		return observability.ResultBodyRead
	default:
		return observability.ResultTransport
	}
}

const header = "# HELP godon_metrics_exporter_up Status of the Godon metrics exporter\n" +
	"# TYPE godon_metrics_exporter_up gauge\n" +
	"godon_metrics_exporter_up{status=\"success\"} 1\n\n" +
	"# HELP godon_metrics_pushgateway_reachable Whether Push Gateway is reachable\n" +
	"# TYPE godon_metrics_pushgateway_reachable gauge\n" +
	"godon_metrics_pushgateway_reachable "

// Render builds the response body from the current cache snapshot.
// It has no side effects.
func (e *Exporter) Render() string {
	return render(e.cache.Read())
}

func render(s cache.Snapshot) string {
	var b strings.Builder
	b.Grow(len(header) + len(s.MetricsText) + 64)
	b.WriteString(header)
	if s.Reachable {
		b.WriteString("1\n\n")
	} else {
		b.WriteString("0\n\n")
	}

	switch {
	case s.Reachable && s.MetricsText != "":
		// upstream comments and HELP/TYPE lines are dropped, samples forwarded in order
		for _, line := range strings.Split(s.MetricsText, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	case s.LastError != "":
		b.WriteString("# Last error: ")
		b.WriteString(s.LastError)
		b.WriteByte('\n')
	}
	return b.String()
}
