package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/navpolicy/navigation"
	"github.com/signalsfoundry/navpolicy/navigation/surfacegrid"
)

// NavigationCollector bundles Prometheus metrics for navigation policy
// construction and queries. It implements navigation.BuildRecorder and
// navigation.QueryObserver.
type NavigationCollector struct {
	gatherer prometheus.Gatherer

	PoliciesBuilt *prometheus.CounterVec
	BuildErrors   *prometheus.CounterVec

	GridCells        *prometheus.GaugeVec
	GridMaxOccupancy *prometheus.GaugeVec

	Candidates    *prometheus.HistogramVec
	QueryDuration *prometheus.HistogramVec
}

var (
	_ navigation.BuildRecorder = (*NavigationCollector)(nil)
	_ navigation.QueryObserver = (*NavigationCollector)(nil)
)

// NewNavigationCollector registers navigation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewNavigationCollector(reg prometheus.Registerer) (*NavigationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	built, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigation_policies_built_total",
		Help: "Navigation policies instantiated by factory finalize, labeled by policy kind.",
	}, []string{"kind"}), "navigation_policies_built_total")
	if err != nil {
		return nil, err
	}

	buildErrors, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigation_build_errors_total",
		Help: "Rejected factory operations, labeled by reason.",
	}, []string{"reason"}), "navigation_build_errors_total")
	if err != nil {
		return nil, err
	}

	cells, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "navigation_grid_cells",
		Help: "Number of cells in a volume's surface grid.",
	}, []string{"volume"}), "navigation_grid_cells")
	if err != nil {
		return nil, err
	}

	maxOcc, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "navigation_grid_max_occupancy",
		Help: "Largest number of surfaces held by a single cell of a volume's surface grid.",
	}, []string{"volume"}), "navigation_grid_max_occupancy")
	if err != nil {
		return nil, err
	}

	candidates, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "navigation_candidates",
		Help:    "Number of candidates returned per navigation query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"volume"}), "navigation_candidates")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "navigation_query_duration_seconds",
		Help:    "Latency of navigation candidate queries in seconds.",
		Buckets: []float64{1e-7, 2.5e-7, 5e-7, 1e-6, 2.5e-6, 5e-6, 1e-5, 2.5e-5, 5e-5, 1e-4, 1e-3},
	}, []string{"volume"}), "navigation_query_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &NavigationCollector{
		gatherer:         gatherer,
		PoliciesBuilt:    built,
		BuildErrors:      buildErrors,
		GridCells:        cells,
		GridMaxOccupancy: maxOcc,
		Candidates:       candidates,
		QueryDuration:    durations,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *NavigationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *NavigationCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// PolicyBuilt counts one instantiated policy.
func (c *NavigationCollector) PolicyBuilt(_ string, kind navigation.Kind) {
	if c == nil || c.PoliciesBuilt == nil {
		return
	}
	c.PoliciesBuilt.WithLabelValues(kind.String()).Inc()
}

// BuildFailed counts one rejected factory operation.
func (c *NavigationCollector) BuildFailed(reason string) {
	if c == nil || c.BuildErrors == nil {
		return
	}
	c.BuildErrors.WithLabelValues(reason).Inc()
}

// GridBuilt publishes the occupancy of a freshly built surface grid.
func (c *NavigationCollector) GridBuilt(volume string, stats surfacegrid.Stats) {
	if c == nil {
		return
	}
	if c.GridCells != nil {
		c.GridCells.WithLabelValues(volume).Set(float64(stats.Cells))
	}
	if c.GridMaxOccupancy != nil {
		c.GridMaxOccupancy.WithLabelValues(volume).Set(float64(stats.MaxOccupancy))
	}
}

// ObserveQuery records the size and latency of one candidate query.
func (c *NavigationCollector) ObserveQuery(volume string, candidates int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Candidates != nil {
		c.Candidates.WithLabelValues(volume).Observe(float64(candidates))
	}
	if c.QueryDuration != nil {
		c.QueryDuration.WithLabelValues(volume).Observe(elapsed.Seconds())
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
