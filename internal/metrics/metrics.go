// Package metrics exposes agent counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Collector bundles the sampler metrics. A nil *Collector is valid and
// records nothing, so components never need to check for it.
type Collector struct {
	gatherer prometheus.Gatherer

	Cycles     *prometheus.CounterVec
	Candidates *prometheus.GaugeVec
	Uplinks    *prometheus.CounterVec
	Downlinks  prometheus.Counter
	Reconnects prometheus.Counter
}

// New registers the metrics against reg, defaulting to the global registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sampler_cycles_total",
			Help: "Scan cycles run, labeled by variant and result.",
		}, []string{"variant", "result"}),
		Candidates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sampler_candidates",
			Help: "Networks selected in the last cycle.",
		}, []string{"variant"}),
		Uplinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sampler_uplinks_total",
			Help: "Uplink attempts, labeled by transport and result.",
		}, []string{"transport", "result"}),
		Downlinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sampler_downlinks_total",
			Help: "Downlink notifications seen on the modem channel.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sampler_reconnects_total",
			Help: "Blocking Wi-Fi reconnect attempts.",
		}),
	}
	for _, m := range []prometheus.Collector{c.Cycles, c.Candidates, c.Uplinks, c.Downlinks, c.Reconnects} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Cycle(variant, result string) {
	if c == nil {
		return
	}
	c.Cycles.WithLabelValues(variant, result).Inc()
}

func (c *Collector) Selected(variant string, n int) {
	if c == nil {
		return
	}
	c.Candidates.WithLabelValues(variant).Set(float64(n))
}

func (c *Collector) Uplink(transport string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Uplinks.WithLabelValues(transport, result).Inc()
}

func (c *Collector) Downlink() {
	if c == nil {
		return
	}
	c.Downlinks.Inc()
}

func (c *Collector) Reconnect() {
	if c == nil {
		return
	}
	c.Reconnects.Inc()
}

// Handler serves the registry the collector was built against.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
