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

const namespace = "solana_bridge_relayer"

// Recorder receives relay progress from the relay loop.
type Recorder interface {
	ObserveCounter(counter uint64)
	RelayConfirmed(ctx context.Context, index, amount uint64)
	RelayFailed(ctx context.Context, index uint64)
}

type Prometheus struct {
	registry      *prometheus.Registry
	counter       prometheus.Gauge
	lastProcessed prometheus.Gauge
	relayed       prometheus.Counter
	relayedAmount prometheus.Counter
	failed        prometheus.Counter
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		counter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_counter",
			Help:      "Last event counter read from the watched account.",
		}),
		lastProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_index",
			Help:      "Highest event index confirmed on the destination chain in this run.",
		}),
		relayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_total",
			Help:      "Relay transactions confirmed on the destination chain.",
		}),
		relayedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_amount_total",
			Help:      "Sum of amounts carried by confirmed relay transactions.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_failures_total",
			Help:      "Relay attempts that aborted a drain pass.",
		}),
	}
	p.registry.MustRegister(p.counter, p.lastProcessed, p.relayed, p.relayedAmount, p.failed)
	return p
}

func (p *Prometheus) ObserveCounter(counter uint64) {
	p.counter.Set(float64(counter))
}

func (p *Prometheus) RelayConfirmed(_ context.Context, index, amount uint64) {
	p.lastProcessed.Set(float64(index))
	p.relayed.Inc()
	p.relayedAmount.Add(float64(amount))
}

func (p *Prometheus) RelayFailed(_ context.Context, _ uint64) {
	p.failed.Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (p *Prometheus) Serve(ctx context.Context, addr string) <-chan struct{} {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	doneChan := make(chan struct{})
	go func() {
		defer close(doneChan)
		log.Info().Msgf("Serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return doneChan
}

// Multi fans relay progress out to several recorders.
type Multi []Recorder

func (m Multi) ObserveCounter(counter uint64) {
	for _, r := range m {
		r.ObserveCounter(counter)
	}
}

func (m Multi) RelayConfirmed(ctx context.Context, index, amount uint64) {
	for _, r := range m {
		r.RelayConfirmed(ctx, index, amount)
	}
}

func (m Multi) RelayFailed(ctx context.Context, index uint64) {
	for _, r := range m {
		r.RelayFailed(ctx, index)
	}
}

type Noop struct{}

func (Noop) ObserveCounter(uint64)                          {}
func (Noop) RelayConfirmed(context.Context, uint64, uint64) {}
func (Noop) RelayFailed(context.Context, uint64)            {}
