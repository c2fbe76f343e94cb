package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimulatorCollector exposes metrics of the simulation loop.
type SimulatorCollector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	SimSeconds   prometheus.Gauge
	EclipseState prometheus.Gauge
}

// NewSimulatorCollector registers simulator metrics against reg.
func NewSimulatorCollector(reg prometheus.Registerer) (*SimulatorCollector, error) {
	reg, gatherer := registryPair(reg)

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kernel_sim_ticks_total",
		Help: "Simulation ticks evaluated by the simulator loop.",
	}), "kernel_sim_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kernel_sim_tick_duration_seconds",
		Help:    "Wall-clock time spent evaluating one simulation tick.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}), "kernel_sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	simSeconds, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kernel_sim_time_seconds",
		Help: "Current simulation time in seconds since the Unix epoch.",
	}), "kernel_sim_time_seconds")
	if err != nil {
		return nil, err
	}

	eclipse, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kernel_sim_eclipse_state",
		Help: "Eclipse classification at the observer: 0 none, 1 partial, 2 annular, 3 total.",
	}), "kernel_sim_eclipse_state")
	if err != nil {
		return nil, err
	}

	return &SimulatorCollector{
		gatherer:     gatherer,
		Ticks:        ticks,
		TickDuration: tickDuration,
		SimSeconds:   simSeconds,
		EclipseState: eclipse,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimulatorCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler serves the simulator metrics.
func (c *SimulatorCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one evaluated tick at simulation time simSeconds.
func (c *SimulatorCollector) ObserveTick(simSeconds float64, took time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDuration.Observe(took.Seconds())
	c.SimSeconds.Set(simSeconds)
}

// SetEclipseState records the latest eclipse classification.
func (c *SimulatorCollector) SetEclipseState(state int) {
	if c == nil {
		return
	}
	c.EclipseState.Set(float64(state))
}
