package geocode

import (
	"context"
	"fmt"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/pkg/api"
)

// GeocodeClient is the subset of the Google Maps client used for geocoding.
type GeocodeClient interface {
	Geocode(ctx context.Context, address string) (*api.GeocodeResponse, error)
}

// Google geocodes addresses with the Google Geocoding API. The first result wins.
type Google struct {
	client GeocodeClient
}

func NewGoogle(client GeocodeClient) *Google {
	return &Google{client: client}
}

func (g *Google) Geocode(ctx context.Context, address string) (fuelroute.Coordinate, error) {
	resp, err := g.client.Geocode(ctx, address)
	if err != nil {
		return fuelroute.Coordinate{}, fmt.Errorf("geocoding error: %w", err)
	}

	switch resp.Status {
	case api.ApiResultOK:
	case api.ApiResultZeroResults:
		return fuelroute.Coordinate{}, fmt.Errorf("%w for %s", ErrNoResults, address)
	default:
		return fuelroute.Coordinate{}, fmt.Errorf("geocoding API returned non-OK result: %s %s", resp.Status, resp.ErrorMessage)
	}

	if len(resp.Results) == 0 {
		return fuelroute.Coordinate{}, fmt.Errorf("%w for %s", ErrNoResults, address)
	}

	loc := resp.Results[0].Geometry.Location
	return fuelroute.Coordinate{Lat: loc.Lat, Lng: loc.Lng}, nil
}
