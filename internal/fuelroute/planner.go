package fuelroute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// PlannerConfig tunes a Planner. Zero values select the package defaults.
type PlannerConfig struct {
	MaxRangeMiles     float64
	SearchRadiusMiles float64
	MilesPerGallon    float64
}

// Planner turns a start and end location into a fuel stop Report.
type Planner struct {
	routes   RouteProvider
	stations StationStore
	cfg      PlannerConfig
	log      *slog.Logger
}

// NewPlanner creates a Planner. routes may be nil when only EvaluateRoute is used.
func NewPlanner(routes RouteProvider, stations StationStore, cfg PlannerConfig, logger *slog.Logger) *Planner {
	if cfg.MaxRangeMiles <= 0 {
		cfg.MaxRangeMiles = DefaultMaxRangeMiles
	}
	if cfg.SearchRadiusMiles <= 0 {
		cfg.SearchRadiusMiles = DefaultSearchRadiusMiles
	}
	if cfg.MilesPerGallon <= 0 {
		cfg.MilesPerGallon = DefaultMilesPerGallon
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Planner{
		routes:   routes,
		stations: stations,
		cfg:      cfg,
		log:      logger,
	}
}

// Config returns the effective configuration, defaults applied.
func (p *Planner) Config() PlannerConfig {
	return p.cfg
}

// Evaluate fetches the route between start and end and builds its Report.
func (p *Planner) Evaluate(ctx context.Context, start, end string) (*Report, error) {
	route, err := p.FetchRoute(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return p.EvaluateRoute(ctx, route)
}

// FetchRoute asks the route provider for the route between start and end.
// It returns ErrMissingInput without calling the provider when either
// location is empty or both are the same, and an error matching
// ErrProviderFailure when the provider rejects the request.
func (p *Planner) FetchRoute(ctx context.Context, start, end string) (*Route, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" || strings.EqualFold(start, end) {
		return nil, ErrMissingInput
	}

	if p.routes == nil {
		return nil, errors.New("no route provider configured")
	}

	route, err := p.routes.Route(ctx, start, end)
	if err != nil {
		if errors.Is(err, ErrProviderFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching route: %w", err)
	}

	p.log.Debug("Route fetched", "start", start, "end", end, "steps", len(route.Steps), "meters", route.DistanceMeters)

	return route, nil
}

// EvaluateRoute builds the Report for an already fetched route. Fuel stop
// points with no station in range are kept in the report but contribute no
// station to the cost estimate.
func (p *Planner) EvaluateRoute(ctx context.Context, route *Route) (*Report, error) {
	if route == nil {
		return nil, errors.New("route is required")
	}

	miles := route.Miles()
	points := FuelStopPoints(route, p.cfg.MaxRangeMiles)
	stops := make([]Station, 0, len(points))

	if len(points) > 0 {
		stations, err := p.stations.AllStations(ctx)
		if err != nil {
			return nil, fmt.Errorf("error loading stations: %w", err)
		}

		for _, point := range points {
			station, ok := CheapestStation(point, stations, p.cfg.SearchRadiusMiles)
			if !ok {
				p.log.Debug("No station in range", "lat", point.Lat, "lng", point.Lng, "radius", p.cfg.SearchRadiusMiles)
				continue
			}
			stops = append(stops, station)
		}
	}

	cost := estimateCost(miles, p.cfg.MilesPerGallon, stops)

	if points == nil {
		points = []Coordinate{}
	}

	return &Report{
		DistanceMiles:  roundPrecision(miles, reportDecimalPlaces),
		FuelStopPoints: points,
		FuelStops:      stops,
		TotalFuelCost:  roundPrecision(cost, reportDecimalPlaces),
	}, nil
}
