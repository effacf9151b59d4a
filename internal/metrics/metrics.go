package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route evaluation outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeMissingInput    = "missing_input"
	OutcomeProviderFailure = "provider_failure"
	OutcomeError           = "error"
)

type Collector struct {
	reg *prometheus.Registry

	RouteEvaluations   *prometheus.CounterVec // outcome label
	EvaluationDuration prometheus.Histogram
	FuelStopPoints     prometheus.Counter
	UnmatchedStops     prometheus.Counter
	NearbyLookups      *prometheus.CounterVec // result label: found|none
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RouteEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fuelroute_route_evaluations_total",
			Help: "Route evaluations by outcome.",
		}, []string{"outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fuelroute_route_evaluation_duration_seconds",
			Help:    "Duration of route evaluations, provider call included.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		FuelStopPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuelroute_fuel_stop_points_total",
			Help: "Fuel stop points computed across all evaluations.",
		}),
		UnmatchedStops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuelroute_unmatched_fuel_stops_total",
			Help: "Fuel stop points with no station within the search radius.",
		}),
		NearbyLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fuelroute_nearby_lookups_total",
			Help: "Nearby station lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.RouteEvaluations, c.EvaluationDuration,
		c.FuelStopPoints, c.UnmatchedStops,
		c.NearbyLookups,
	)

	return c
}

// ObserveEvaluation records a finished evaluation. points and stops are only
// meaningful for successful ones.
func (c *Collector) ObserveEvaluation(outcome string, elapsed time.Duration, points, stops int) {
	c.RouteEvaluations.WithLabelValues(outcome).Inc()
	c.EvaluationDuration.Observe(elapsed.Seconds())
	if outcome != OutcomeOK {
		return
	}
	c.FuelStopPoints.Add(float64(points))
	if points > stops {
		c.UnmatchedStops.Add(float64(points - stops))
	}
}

func (c *Collector) ObserveNearby(found bool) {
	result := "none"
	if found {
		result = "found"
	}
	c.NearbyLookups.WithLabelValues(result).Inc()
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
