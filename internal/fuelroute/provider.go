package fuelroute

import (
	"context"
	"fmt"

	"github.com/rubiojr/fuelroute/pkg/api"
)

// RouteProvider resolves two free-text locations into a driving route.
type RouteProvider interface {
	Route(ctx context.Context, start, end string) (*Route, error)
}

// StationStore gives read access to every known fuel station.
type StationStore interface {
	AllStations(ctx context.Context) ([]Station, error)
}

// DirectionsClient is the subset of the Google Maps client used to fetch routes.
type DirectionsClient interface {
	Directions(ctx context.Context, origin, destination string) (*api.DirectionsResponse, error)
}

// MapsProvider implements RouteProvider on top of the Google Directions API.
// Only the first leg of the first suggested route is used.
type MapsProvider struct {
	client DirectionsClient
}

// NewMapsProvider creates a RouteProvider backed by client.
func NewMapsProvider(client DirectionsClient) *MapsProvider {
	return &MapsProvider{client: client}
}

// Route fetches directions and converts them into a Route. A non-OK status is
// returned as a *ProviderError.
func (p *MapsProvider) Route(ctx context.Context, start, end string) (*Route, error) {
	directions, err := p.client.Directions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("error fetching directions: %w", err)
	}

	if directions.Status != api.ApiResultOK {
		return nil, &ProviderError{Status: directions.Status, Message: directions.ErrorMessage}
	}

	if len(directions.Routes) == 0 || len(directions.Routes[0].Legs) == 0 {
		return nil, &ProviderError{Status: api.ApiResultZeroResults, Message: "no route legs returned"}
	}

	return routeFromLeg(&directions.Routes[0].Legs[0]), nil
}

func routeFromLeg(leg *api.Leg) *Route {
	route := &Route{
		Start:          Coordinate{Lat: leg.StartLocation.Lat, Lng: leg.StartLocation.Lng},
		DistanceMeters: leg.Distance.Value,
		Steps:          make([]Step, 0, len(leg.Steps)),
	}
	for i := range leg.Steps {
		step := &leg.Steps[i]
		route.Steps = append(route.Steps, Step{
			DistanceMeters: step.Distance.Value,
			EndLocation:    Coordinate{Lat: step.EndLocation.Lat, Lng: step.EndLocation.Lng},
		})
	}
	return route
}
